package x12

import (
	"reflect"
	"testing"
)

func testDelims() Delimiters {
	return Delimiters{Element: '*', Component: ':', Repetition: '^', Terminator: '~'}
}

func TestSegmentIDAndElements(t *testing.T) {
	s := NewSegment("CLM*26463774*100***11:B:1*Y*A*Y*Y", testDelims())

	if got := s.ID(); got != "CLM" {
		t.Fatalf("ID() = %q, want CLM", got)
	}
	if got := s.Element(1); got != "26463774" {
		t.Fatalf("Element(1) = %q, want 26463774", got)
	}
	if got := s.Element(2); got != "100" {
		t.Fatalf("Element(2) = %q, want 100", got)
	}
	if got := s.Element(3); got != "" {
		t.Fatalf("Element(3) = %q, want empty", got)
	}
	if got := s.Element(99); got != "" {
		t.Fatalf("out-of-range Element(99) = %q, want empty", got)
	}
	if got := s.ElementCount(); got != 10 {
		t.Fatalf("ElementCount() = %d, want 10 (segment id plus 9 elements)", got)
	}
}

func TestSegmentComposite(t *testing.T) {
	s := NewSegment("CLM*26463774*100***11:B:1", testDelims())

	got := s.Composite(5)
	want := []string{"11", "B", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Composite(5) = %v, want %v", got, want)
	}

	if got := s.Composite(2); !reflect.DeepEqual(got, []string{"100"}) {
		t.Fatalf("Composite(2) with no component separator = %v, want [100]", got)
	}

	if got := s.Composite(3); got != nil {
		t.Fatalf("Composite(3) on empty element = %v, want nil", got)
	}
}

func TestSegmentStringRoundTrip(t *testing.T) {
	raw := "NM1*85*2*ACME CLINIC*****XX*1234567893"
	s := NewSegment(raw, testDelims())
	if s.String() != raw {
		t.Fatalf("String() = %q, want %q", s.String(), raw)
	}
}

func TestSegmentIsZero(t *testing.T) {
	var zero Segment
	if !zero.IsZero() {
		t.Fatal("zero-value Segment should report IsZero() true")
	}
	s := NewSegment("SE*54*0001", testDelims())
	if s.IsZero() {
		t.Fatal("constructed Segment should report IsZero() false")
	}
}
