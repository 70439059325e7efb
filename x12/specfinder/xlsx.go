// =============================================================================
// specfinder - XLSX Implementation Guide Source
// =============================================================================
//
// Many real trading-partner implementation guides circulate as
// spreadsheets: one row per segment or loop, with columns for the
// nesting path, the starting segment id, and whether the entry is
// required. XLSXRepository reads that shape directly with excelize,
// the same library the wider codebase uses to read its own XLSX
// templates, rather than requiring guides to be hand-transcribed into
// YAML first.
//
// EXPECTED SHEET LAYOUT (row 1 is a header, ignored):
//
//   | Kind   | Key     | ParentKey | StartOrLevel | Name              | FGCode | Version      | TxnSet | MaxRepeat | Required |
//   |--------|---------|-----------|--------------|-------------------|--------|--------------|--------|-----------|----------|
//   | txn    | root    |           |              | Health Care Claim | HC     | 005010X222A1 | 837    |           |          |
//   | hloop  | 20      | root      | 20           | Billing Provider  |        |              |        |           |          |
//   | loop   | 2010AA  | 20        | NM1          | Billing Provider  |        |              |        | 1         |          |
//   | segment| N3      | 2010AA    | N3           | Billing Address   |        |              |        |           | true     |
//
// Kind is one of "txn", "loop", "hloop", "segment". Every row but the
// root "txn" row names its ParentKey; rows are otherwise order-
// independent, since the whole sheet is read into memory and linked up
// by key before any spec.TransactionSpecification is built.
//
// =============================================================================

package specfinder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/x12stream/x12/spec"
)

const (
	colKind       = 0
	colKey        = 1
	colParentKey  = 2
	colStartLevel = 3
	colName       = 4
	colFGCode     = 5
	colVersion    = 6
	colTxnSet     = 7
	colMaxRepeat  = 8
	colRequired   = 9

	headerRows = 1
)

type xlsxRow struct {
	kind       string
	key        string
	parentKey  string
	startLevel string
	name       string
	fgCode     string
	version    string
	txnSet     string
	maxRepeat  int
	required   bool
}

// LoadXLSXRepository reads one implementation guide per sheet of the
// workbook at path and returns a StaticFinder over all of them.
func LoadXLSXRepository(path string) (*StaticFinder, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open implementation guide workbook: %w", err)
	}
	defer f.Close()

	specs := make(map[Key]*spec.TransactionSpecification)
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
		}
		ts, err := buildTransactionFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		if ts == nil {
			continue
		}
		if errs := ts.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("sheet %s: invalid specification: %v", sheetName, errs[0])
		}
		key := Key{
			FunctionalGroupCode: ts.FunctionalGroupCode,
			VersionCode:         ts.VersionCode,
			TransactionSetCode:  ts.TransactionSetCode,
		}
		specs[key] = ts
	}

	return NewStaticFinder(specs), nil
}

func buildTransactionFromRows(rows [][]string) (*spec.TransactionSpecification, error) {
	var parsed []xlsxRow
	for i := headerRows; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}
		r, err := parseRow(row, i)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		parsed = append(parsed, r)
	}
	if len(parsed) == 0 {
		return nil, nil
	}

	var root *xlsxRow
	children := make(map[string][]*xlsxRow)
	for i := range parsed {
		r := &parsed[i]
		if r.kind == "txn" {
			root = r
			continue
		}
		children[r.parentKey] = append(children[r.parentKey], r)
	}
	if root == nil {
		return nil, fmt.Errorf("sheet has no txn row")
	}

	ts := &spec.TransactionSpecification{
		FunctionalGroupCode: root.fgCode,
		VersionCode:         root.version,
		TransactionSetCode:  root.txnSet,
	}
	attachChildren(root.key, children, &ts.Segments, &ts.Loops, &ts.HLoops)
	return ts, nil
}

// attachChildren links every row whose ParentKey is parentKey into the
// appropriate out-slice, recursing into loop and HL children using
// their own key as the next parentKey.
func attachChildren(parentKey string, children map[string][]*xlsxRow, segs *[]spec.SegmentSpecification, loops *[]*spec.LoopSpecification, hloops *[]*spec.HierarchicalLoopSpecification) {
	for _, r := range children[parentKey] {
		switch r.kind {
		case "segment":
			*segs = append(*segs, spec.SegmentSpecification{ID: r.startLevel, Name: r.name, Required: r.required})
		case "loop":
			l := &spec.LoopSpecification{
				ID:             r.key,
				Name:           r.name,
				StartSegmentID: r.startLevel,
				MaxRepeat:      r.maxRepeat,
			}
			// LoopSpecification has no HLoops field, so any hloop row
			// parented to this loop is discarded here rather than kept.
			attachChildren(r.key, children, &l.Segments, &l.Loops, &[]*spec.HierarchicalLoopSpecification{})
			*loops = append(*loops, l)
		case "hloop":
			h := &spec.HierarchicalLoopSpecification{
				LevelCode: r.startLevel,
				Name:      r.name,
			}
			attachChildren(r.key, children, &h.Segments, &h.Loops, &h.HLoops)
			*hloops = append(*hloops, h)
		}
	}
}

func parseRow(row []string, idx int) (xlsxRow, error) {
	r := xlsxRow{
		kind:       strings.ToLower(strings.TrimSpace(cell(row, colKind))),
		key:        strings.TrimSpace(cell(row, colKey)),
		parentKey:  strings.TrimSpace(cell(row, colParentKey)),
		startLevel: strings.TrimSpace(cell(row, colStartLevel)),
		name:       strings.TrimSpace(cell(row, colName)),
		fgCode:     strings.TrimSpace(cell(row, colFGCode)),
		version:    strings.TrimSpace(cell(row, colVersion)),
		txnSet:     strings.TrimSpace(cell(row, colTxnSet)),
	}
	if r.kind == "" {
		return r, fmt.Errorf("missing Kind")
	}
	if maxRepeat := strings.TrimSpace(cell(row, colMaxRepeat)); maxRepeat != "" {
		n, err := strconv.Atoi(maxRepeat)
		if err != nil {
			return r, fmt.Errorf("MaxRepeat %q: %w", maxRepeat, err)
		}
		r.maxRepeat = n
	}
	if required := strings.TrimSpace(cell(row, colRequired)); required != "" {
		r.required = strings.EqualFold(required, "true") || required == "1"
	}
	return r, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
