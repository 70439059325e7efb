package unbundle

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/x12stream/x12/parser"
	"github.com/ginjaninja78/x12stream/x12/spec"
	"github.com/ginjaninja78/x12stream/x12/specfinder"
)

func testSpec() *spec.TransactionSpecification {
	return &spec.TransactionSpecification{
		FunctionalGroupCode: "HC",
		VersionCode:         "005010X222A1",
		TransactionSetCode:  "837",
		Segments:            []spec.SegmentSpecification{{ID: "BHT"}},
		HLoops: []*spec.HierarchicalLoopSpecification{
			{
				LevelCode: "20",
				Loops: []*spec.LoopSpecification{
					{
						ID:             "2300",
						StartSegmentID: "CLM",
						Segments:       []spec.SegmentSpecification{{ID: "DTP"}},
					},
				},
			},
		},
	}
}

func testParser(t *testing.T) *parser.Parser {
	t.Helper()
	ts := testSpec()
	key := specfinder.Key{FunctionalGroupCode: ts.FunctionalGroupCode, VersionCode: ts.VersionCode, TransactionSetCode: ts.TransactionSetCode}
	finder := specfinder.NewStaticFinder(map[specfinder.Key]*spec.TransactionSpecification{key: ts})
	p, err := parser.New(parser.Options{StrictMode: true, SpecFinder: finder})
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	return p
}

func twoTransactionBatch() string {
	return strings.Join([]string{
		"ISA*00*          *00*          *ZZ*SUBMITTERS.ID  *ZZ*RECEIVERS.ID   *101127*1719*^*00501*000000905*1*T*:",
		"GS*HC*SENDER*RECEIVER*20240101*1200*612200041*X*005010X222A1",
		"ST*837*0001",
		"BHT*0019*00*244579",
		"HL*1**20*0",
		"CLM*26463774*100",
		"DTP*472*D8*20240101",
		"SE*6*0001",
		"ST*837*0002",
		"BHT*0019*00*244580",
		"HL*1**20*0",
		"CLM*26463775*200",
		"DTP*472*D8*20240102",
		"SE*6*0002",
		"GE*2*612200041",
		"IEA*1*000000905",
	}, "~") + "~"
}

func TestByTransactionSplitsEachSTSEPair(t *testing.T) {
	p := testParser(t)
	interchanges, err := p.ParseMultipleString(twoTransactionBatch())
	if err != nil {
		t.Fatalf("ParseMultipleString: %v", err)
	}
	source := interchanges[0]

	out, err := ByTransaction(source, p)
	if err != nil {
		t.Fatalf("ByTransaction: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d interchanges, want 2", len(out))
	}

	first := out[0].Groups[0].Transactions[0]
	if first.ControlNumber() != "0001" {
		t.Fatalf("first transaction ST02 = %q, want 0001", first.ControlNumber())
	}
	if len(out[0].Groups[0].Transactions) != 1 {
		t.Fatal("each unbundled interchange must contain exactly one transaction")
	}

	second := out[1].Groups[0].Transactions[0]
	if second.ControlNumber() != "0002" {
		t.Fatalf("second transaction ST02 = %q, want 0002", second.ControlNumber())
	}
}

// TestByLoopRequiresTopLevelReachability documents a real limitation of
// ByLoop's synthesis: it re-wraps a matched subtree with the owning
// transaction's header, ST, and direct detail segments, but not with
// whatever hierarchical loop enclosed it in the source tree. A loop id
// that is only reachable by first entering an HL (as "2300" is here,
// nested under level "20") therefore fails to reparse in strict mode,
// since CLM arrives with no preceding HL and the transaction itself
// does not list "2300" among its own top-level loops.
func TestByLoopRequiresTopLevelReachability(t *testing.T) {
	p := testParser(t)
	interchanges, err := p.ParseMultipleString(twoTransactionBatch())
	if err != nil {
		t.Fatalf("ParseMultipleString: %v", err)
	}
	source := interchanges[0]

	_, err = ByLoop(source, "2300", p)
	if err == nil {
		t.Fatal("expected ByLoop to fail reparsing an HL-nested loop stripped of its enclosing HL segment")
	}
}

func submitterSpec() *spec.TransactionSpecification {
	return &spec.TransactionSpecification{
		FunctionalGroupCode: "HC",
		VersionCode:         "005010X222A1",
		TransactionSetCode:  "837",
		Segments:            []spec.SegmentSpecification{{ID: "BHT"}},
		Loops: []*spec.LoopSpecification{
			{
				ID:             "1000A",
				StartSegmentID: "NM1",
				Segments:       []spec.SegmentSpecification{{ID: "PER"}},
			},
		},
	}
}

func submitterBatch() string {
	return strings.Join([]string{
		"ISA*00*          *00*          *ZZ*SUBMITTERS.ID  *ZZ*RECEIVERS.ID   *101127*1719*^*00501*000000905*1*T*:",
		"GS*HC*SENDER*RECEIVER*20240101*1200*612200041*X*005010X222A1",
		"ST*837*0001",
		"BHT*0019*00*244579",
		"NM1*41*2*SUBMITTER CLINIC*****46*123456789",
		"PER*IC*CONTACT*TE*5551234567",
		"SE*4*0001",
		"GE*1*612200041",
		"IEA*1*000000905",
	}, "~") + "~"
}

// TestByLoopSplitsTopLevelLoopSubtree covers the case ByLoop handles
// cleanly: a loop id reachable directly under the transaction, with no
// enclosing HL to lose on resynthesis.
func TestByLoopSplitsTopLevelLoopSubtree(t *testing.T) {
	ts := submitterSpec()
	key := specfinder.Key{FunctionalGroupCode: ts.FunctionalGroupCode, VersionCode: ts.VersionCode, TransactionSetCode: ts.TransactionSetCode}
	finder := specfinder.NewStaticFinder(map[specfinder.Key]*spec.TransactionSpecification{key: ts})
	p, err := parser.New(parser.Options{StrictMode: true, SpecFinder: finder})
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}

	interchanges, err := p.ParseMultipleString(submitterBatch())
	if err != nil {
		t.Fatalf("ParseMultipleString: %v", err)
	}

	out, err := ByLoop(interchanges[0], "1000A", p)
	if err != nil {
		t.Fatalf("ByLoop: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d interchanges, want 1", len(out))
	}

	txn := out[0].Groups[0].Transactions[0]
	if len(txn.Children) != 1 {
		t.Fatalf("expected one loop child in the unbundled transaction, got %d", len(txn.Children))
	}
	segs := txn.Children[0].Segments()
	if len(segs) != 2 || segs[0].ID() != "NM1" || segs[1].ID() != "PER" {
		t.Fatalf("unexpected segments in unbundled loop: %v", segs)
	}
}

func TestByLoopNoMatchReturnsEmpty(t *testing.T) {
	p := testParser(t)
	interchanges, err := p.ParseMultipleString(twoTransactionBatch())
	if err != nil {
		t.Fatalf("ParseMultipleString: %v", err)
	}
	source := interchanges[0]

	out, err := ByLoop(source, "9999", p)
	if err != nil {
		t.Fatalf("ByLoop: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d interchanges, want 0 for an unmatched loop id", len(out))
	}
}
