package specfinder

import (
	"testing"

	"github.com/ginjaninja78/x12stream/x12/spec"
)

func TestStaticFinderFind(t *testing.T) {
	key := Key{FunctionalGroupCode: "HC", VersionCode: "005010X222A1", TransactionSetCode: "837"}
	ts := &spec.TransactionSpecification{TransactionSetCode: "837"}
	f := NewStaticFinder(map[Key]*spec.TransactionSpecification{key: ts})

	got, ok := f.Find(key)
	if !ok || got != ts {
		t.Fatalf("Find(%v) = %v, %v, want %v, true", key, got, ok, ts)
	}

	if _, ok := f.Find(Key{TransactionSetCode: "835"}); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCompositeTriesInOrder(t *testing.T) {
	key := Key{TransactionSetCode: "837"}
	other := Key{TransactionSetCode: "835"}

	first := NewStaticFinder(map[Key]*spec.TransactionSpecification{})
	second := NewStaticFinder(map[Key]*spec.TransactionSpecification{
		key: {TransactionSetCode: "837"},
	})
	third := NewStaticFinder(map[Key]*spec.TransactionSpecification{
		key:   {TransactionSetCode: "837-from-third"},
		other: {TransactionSetCode: "835"},
	})

	c := NewComposite(first, second, third)

	got, ok := c.Find(key)
	if !ok || got.TransactionSetCode != "837" {
		t.Fatalf("Find(%v) = %v, want the second finder's hit", key, got)
	}

	got, ok = c.Find(other)
	if !ok || got.TransactionSetCode != "835" {
		t.Fatalf("Find(%v) = %v, want the third finder's hit", other, got)
	}

	if _, ok := c.Find(Key{TransactionSetCode: "270"}); ok {
		t.Fatal("expected miss when no finder has the key")
	}
}

func TestCompositeEmpty(t *testing.T) {
	c := NewComposite()
	if _, ok := c.Find(Key{}); ok {
		t.Fatal("empty Composite should never report a hit")
	}
}
