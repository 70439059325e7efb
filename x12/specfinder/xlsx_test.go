package specfinder

import "testing"

func TestIsRowEmpty(t *testing.T) {
	if !isRowEmpty([]string{"", "  ", ""}) {
		t.Fatal("expected an all-blank row to be empty")
	}
	if isRowEmpty([]string{"", "txn", ""}) {
		t.Fatal("expected a row with content to be non-empty")
	}
}

func TestCellOutOfRange(t *testing.T) {
	row := []string{"a", "b"}
	if got := cell(row, 5); got != "" {
		t.Fatalf("cell() out of range = %q, want empty", got)
	}
	if got := cell(row, 1); got != "b" {
		t.Fatalf("cell(1) = %q, want b", got)
	}
}

func TestParseRowRequiresKind(t *testing.T) {
	_, err := parseRow([]string{"", "2300"}, 1)
	if err == nil {
		t.Fatal("expected an error when Kind is blank")
	}
}

func TestParseRowParsesMaxRepeatAndRequired(t *testing.T) {
	row := make([]string, 10)
	row[colKind] = "segment"
	row[colKey] = "N3"
	row[colParentKey] = "2010AA"
	row[colStartLevel] = "N3"
	row[colMaxRepeat] = "3"
	row[colRequired] = "true"

	r, err := parseRow(row, 2)
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if r.kind != "segment" || r.maxRepeat != 3 || !r.required {
		t.Fatalf("unexpected parsed row: %+v", r)
	}
}

func TestParseRowInvalidMaxRepeat(t *testing.T) {
	row := make([]string, 10)
	row[colKind] = "loop"
	row[colMaxRepeat] = "not-a-number"

	if _, err := parseRow(row, 3); err == nil {
		t.Fatal("expected an error for a non-numeric MaxRepeat")
	}
}

func TestBuildTransactionFromRows(t *testing.T) {
	header := make([]string, 10)
	rows := [][]string{header}

	txnRow := make([]string, 10)
	txnRow[colKind] = "txn"
	txnRow[colKey] = "root"
	txnRow[colFGCode] = "HC"
	txnRow[colVersion] = "005010X222A1"
	txnRow[colTxnSet] = "837"
	rows = append(rows, txnRow)

	hloopRow := make([]string, 10)
	hloopRow[colKind] = "hloop"
	hloopRow[colKey] = "20"
	hloopRow[colParentKey] = "root"
	hloopRow[colStartLevel] = "20"
	hloopRow[colName] = "Billing Provider"
	rows = append(rows, hloopRow)

	loopRow := make([]string, 10)
	loopRow[colKind] = "loop"
	loopRow[colKey] = "2010AA"
	loopRow[colParentKey] = "20"
	loopRow[colStartLevel] = "NM1"
	rows = append(rows, loopRow)

	segRow := make([]string, 10)
	segRow[colKind] = "segment"
	segRow[colKey] = "N3"
	segRow[colParentKey] = "2010AA"
	segRow[colStartLevel] = "N3"
	segRow[colRequired] = "true"
	rows = append(rows, segRow)

	blank := make([]string, 10)
	rows = append(rows, blank)

	ts, err := buildTransactionFromRows(rows)
	if err != nil {
		t.Fatalf("buildTransactionFromRows: %v", err)
	}
	if ts.FunctionalGroupCode != "HC" || ts.TransactionSetCode != "837" {
		t.Fatalf("unexpected transaction header: %+v", ts)
	}
	h := ts.HierarchicalSpec("20")
	if h == nil {
		t.Fatal("expected HL level 20")
	}
	l := h.AllowedLoop("NM1")
	if l == nil || l.ID != "2010AA" {
		t.Fatalf("expected loop 2010AA reachable via NM1, got %v", l)
	}
	if !l.AllowsSegment("N3") {
		t.Fatal("expected N3 to be a direct segment of loop 2010AA")
	}
}

func TestBuildTransactionFromRowsNoRows(t *testing.T) {
	ts, err := buildTransactionFromRows([][]string{make([]string, 10)})
	if err != nil {
		t.Fatalf("buildTransactionFromRows: %v", err)
	}
	if ts != nil {
		t.Fatal("expected nil specification for a sheet with no data rows")
	}
}

func TestBuildTransactionFromRowsMissingTxnRow(t *testing.T) {
	row := make([]string, 10)
	row[colKind] = "loop"
	row[colKey] = "2300"
	row[colParentKey] = "root"
	row[colStartLevel] = "CLM"

	_, err := buildTransactionFromRows([][]string{make([]string, 10), row})
	if err == nil {
		t.Fatal("expected an error when the sheet has no txn row")
	}
}
