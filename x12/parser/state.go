package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/x12stream/x12"
	"github.com/ginjaninja78/x12stream/x12/container"
	"github.com/ginjaninja78/x12stream/x12/diagnostics"
	"github.com/ginjaninja78/x12stream/x12/spec"
	"github.com/ginjaninja78/x12stream/x12/specfinder"
	"github.com/ginjaninja78/x12stream/x12/streamreader"
)

// parseState carries everything mutable for the lifetime of one
// ParseMultiple call: the running list of completed interchanges plus
// the single in-flight interchange/group/transaction/container chain.
// A fresh parseState is constructed per call; nothing in it is shared
// across calls or goroutines.
type parseState struct {
	parser *Parser
	reader *streamreader.Reader

	collector *diagnostics.Collector

	interchanges []*container.Interchange

	currentInterchange *container.Interchange
	currentGroup       *container.FunctionGroup
	currentTransaction *container.Transaction
	currentContainer   detailContainer

	hloops       map[string]*container.HierarchicalLoop
	segmentIndex int
}

// detailContainer is the capability every node that can receive a
// direct segment exposes; it is satisfied by Interchange, Transaction,
// Loop, and HierarchicalLoop.
type detailContainer interface {
	container.Node
	AddSegment(s x12.Segment, force bool) *x12.Segment
}

// loopAdder is satisfied by containers that may host child loops.
type loopAdder interface {
	AddLoop(s x12.Segment) *container.Loop
}

// hloopAdder is satisfied by containers that may host child
// hierarchical loops.
type hloopAdder interface {
	spec.HierarchicalLoopContainer
	AddHierarchicalLoop(s x12.Segment, levelCode string) (*container.HierarchicalLoop, error)
}

// runInterchange consumes segments from st.reader until the
// interchange it frames is complete (an IEA is dispatched) or the
// stream itself is exhausted (io.EOF from ReadSegment). A single call
// handles exactly one interchange; ParseMultiple's loop calls
// streamreader.New again to frame the next one, which re-reads a
// fresh 106-byte ISA header off the shared bufio.Reader rather than
// treating a second interchange's ISA as an ordinary segment.
func (st *parseState) runInterchange() error {
	delims := st.reader.Delimiters()
	// ISASegment returns the full 106-byte header, terminator included
	// at offset 105; every other segment NewSegment wraps comes from
	// ReadSegment already stripped of its terminator, so trim it here
	// too, or String() would round-trip into a doubled terminator.
	isaRaw := strings.TrimSuffix(st.reader.ISASegment(), string(delims.Terminator))
	isa := x12.NewSegment(isaRaw, delims)

	st.currentInterchange = &container.Interchange{
		Delimiters: delims,
		ISA:        isa,
	}
	st.interchanges = append(st.interchanges, st.currentInterchange)
	st.currentGroup = nil
	st.currentTransaction = nil
	st.currentContainer = st.currentInterchange
	st.hloops = make(map[string]*container.HierarchicalLoop)
	st.segmentIndex = 0

	for {
		raw, err := st.reader.ReadSegment()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read segment: %w", err)
		}
		s := x12.NewSegment(raw, delims)
		st.segmentIndex++
		if st.dispatch(s) {
			return nil
		}
	}
}

// dispatch routes one segment to the appropriate handler by id,
// exactly as tabulated in the structural parser's design. It reports
// true once IEA closes out the interchange currently being framed,
// telling runInterchange to stop so the next interchange can be
// framed from scratch.
func (st *parseState) dispatch(s x12.Segment) bool {
	if st.parser.logger != nil {
		st.parser.logger.Debug("segment %d: %s", st.segmentIndex, s.ID())
	}
	switch s.ID() {
	case "IEA":
		if st.currentInterchange == nil {
			st.reportError(diagnostics.KindMismatchSegment, s, "no open interchange for IEA")
			return false
		}
		st.currentInterchange.SetTerminatingTrailer(s)
		return true
	case "GS":
		if st.currentInterchange == nil {
			st.reportError(diagnostics.KindMissingPrecedingSegment, s, "GS with no open interchange")
			return false
		}
		st.currentGroup = st.currentInterchange.AddGroup(s)
		st.currentContainer = st.currentInterchange
	case "GE":
		if st.currentGroup == nil {
			st.reportError(diagnostics.KindMismatchSegment, s, "no open function group for GE")
			return false
		}
		st.currentGroup.SetTerminatingTrailer(s)
		st.currentGroup = nil
	case "ST":
		st.handleST(s)
	case "SE":
		if st.currentTransaction == nil {
			st.reportError(diagnostics.KindMismatchSegment, s, "no open transaction for SE")
			return false
		}
		st.currentTransaction.SetTerminatingTrailer(s)
		st.currentTransaction = nil
		st.currentContainer = st.currentInterchange
	case "HL":
		st.placeHierarchicalLoop(s)
	case "TA1":
		st.currentInterchange.AddSegment(s, true)
	default:
		st.placeDetail(s)
	}
	return false
}

func (st *parseState) handleST(s x12.Segment) {
	if st.currentGroup == nil {
		st.reportError(diagnostics.KindMissingGsSegment, s, "ST with no open function group")
		return
	}

	key := specfinder.Key{
		FunctionalGroupCode: st.currentGroup.GS.Element(1),
		VersionCode:         st.currentGroup.GS.Element(8),
		TransactionSetCode:  s.Element(1),
	}
	ts, ok := st.parser.finder.Find(key)
	if !ok {
		st.reportError(diagnostics.KindUnresolvedSpecification, s, fmt.Sprintf(
			"no specification for functional group %q version %q transaction set %q",
			key.FunctionalGroupCode, key.VersionCode, key.TransactionSetCode))
		// An empty spec accepts no segments and no loops, so every
		// detail segment that follows in this transaction will report
		// SegmentCannotBeIdentified in turn; that cascade is expected,
		// not a second bug, once the transaction itself is unresolved.
		ts = &spec.TransactionSpecification{
			FunctionalGroupCode: key.FunctionalGroupCode,
			VersionCode:         key.VersionCode,
			TransactionSetCode:  key.TransactionSetCode,
		}
	}

	st.currentTransaction = st.currentGroup.AddTransaction(s, ts)
	st.currentContainer = st.currentTransaction
	st.hloops = make(map[string]*container.HierarchicalLoop)
	st.segmentIndex = 1
}

func (st *parseState) reportError(kind diagnostics.ErrorKind, s x12.Segment, detail string) {
	st.collector.Report(kind, s.ID(), s.String(), st.segmentIndex, st.breadcrumb(), st.controlNumbers(), detail)
}

func (st *parseState) reportWarning(kind diagnostics.ErrorKind, s x12.Segment, breadcrumb, detail string) {
	st.collector.Report(kind, s.ID(), s.String(), st.segmentIndex, breadcrumb, st.controlNumbers(), detail)
}

// breadcrumb renders the current container's diagnostic label, empty
// for the interchange/transaction root.
func (st *parseState) breadcrumb() string {
	type breadcrumber interface {
		Breadcrumb() string
	}
	if b, ok := st.currentContainer.(breadcrumber); ok {
		return b.Breadcrumb()
	}
	return ""
}

// controlNumbers reads ISA13/GS06/ST02 off whichever containers are
// currently open, for diagnostics to echo.
func (st *parseState) controlNumbers() diagnostics.ControlNumbers {
	var cn diagnostics.ControlNumbers
	if st.currentInterchange != nil {
		cn.Interchange = st.currentInterchange.ISA.Element(13)
	}
	if st.currentGroup != nil {
		cn.Group = st.currentGroup.ControlNumber()
	}
	if st.currentTransaction != nil {
		cn.Transaction = st.currentTransaction.ControlNumber()
	}
	return cn
}
