// =============================================================================
// unbundle - Splitting One Interchange Into Many
// =============================================================================
//
// Both operations here follow the same shape: synthesize a standalone
// X12 byte buffer for a subset of the source interchange's content,
// then reparse it through the caller's *parser.Parser. Reparsing
// (rather than directly cloning container nodes) guarantees every
// output interchange satisfies the same tree invariants a freshly
// parsed document would, at the cost of redoing placement work the
// source parse already did once.
//
// =============================================================================

package unbundle

import (
	"bytes"
	"fmt"

	"github.com/ginjaninja78/x12stream/x12"
	"github.com/ginjaninja78/x12stream/x12/container"
	"github.com/ginjaninja78/x12stream/x12/parser"
)

// ByTransaction splits i into one interchange per (group, transaction)
// pair, each wrapped in its own ISA/IEA using i's delimiters and
// trailer segments. Output order matches document order.
func ByTransaction(i *container.Interchange, p *parser.Parser) ([]*container.Interchange, error) {
	var out []*container.Interchange

	for _, group := range i.Groups {
		for _, txn := range group.Transactions {
			buf, err := synthesize(i, group, func(w *bytes.Buffer, term byte) error {
				writeTransactionBody(w, txn, term)
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("synthesize transaction %s: %w", txn.ControlNumber(), err)
			}
			interchanges, err := p.ParseMultipleString(buf)
			if err != nil {
				return nil, fmt.Errorf("reparse unbundled transaction %s: %w", txn.ControlNumber(), err)
			}
			out = append(out, interchanges...)
		}
	}

	return out, nil
}

// ByLoop splits i into one interchange per maximal ordinary Loop
// subtree, however deep it is nested under the transaction's HL tree,
// whose spec id equals loopID, wrapping each with its owning
// transaction's header and the transaction's direct detail segments
// that precede its first child loop in document order. The HL segments
// enclosing a matched subtree are not written, so a subtree whose loop
// is reachable only through an HL fails to reparse and ByLoop returns
// an error. HierarchicalLoop nodes are identified by level code, not by
// a loop id (HierarchicalLoopSpecification carries no ID field the way
// LoopSpecification does), so loopID never matches an HL node itself —
// only ordinary loops nested under one.
func ByLoop(i *container.Interchange, loopID string, p *parser.Parser) ([]*container.Interchange, error) {
	var out []*container.Interchange

	for _, group := range i.Groups {
		for _, txn := range group.Transactions {
			subtrees := collectMaximalSubtrees(txn.Children, loopID)
			var leadingDetail []x12.Segment
			for _, e := range txn.OrderedEntries() {
				if !e.IsSegment() {
					break
				}
				leadingDetail = append(leadingDetail, e.Segment)
			}

			for _, subtree := range subtrees {
				buf, err := synthesize(i, group, func(w *bytes.Buffer, term byte) error {
					writeSegment(w, txn.ST, term)
					for _, seg := range leadingDetail {
						writeSegment(w, seg, term)
					}
					writeNode(w, subtree, term)
					writeSegment(w, txn.SE, term)
					return nil
				})
				if err != nil {
					return nil, fmt.Errorf("synthesize loop %s subtree: %w", loopID, err)
				}
				interchanges, err := p.ParseMultipleString(buf)
				if err != nil {
					return nil, fmt.Errorf("reparse unbundled loop %s subtree: %w", loopID, err)
				}
				out = append(out, interchanges...)
			}
		}
	}

	return out, nil
}

// loopIdentified is satisfied by *container.Loop and, through
// embedding, *container.HierarchicalLoop, though a HierarchicalLoop's
// promoted LoopID() always reports "" since it is identified by level
// code instead, so it never matches a non-empty loopID here.
type loopIdentified interface {
	LoopID() string
}

// collectMaximalSubtrees walks children depth-first in document order,
// collecting every node whose spec loop id equals loopID without
// descending further into a match (a loop matching loopID nested
// inside another match belongs to the outer subtree, not a separate
// one).
func collectMaximalSubtrees(nodes []container.Node, loopID string) []container.Node {
	var out []container.Node
	for _, n := range nodes {
		if li, ok := n.(loopIdentified); ok && li.LoopID() == loopID {
			out = append(out, n)
			continue
		}
		type childHolder interface {
			ChildNodes() []container.Node
		}
		if ch, ok := n.(childHolder); ok {
			out = append(out, collectMaximalSubtrees(ch.ChildNodes(), loopID)...)
		}
	}
	return out
}

// writeNode writes n's own segments interleaved with its nested loops
// in the true order AddSegment/AddLoop built them, not all segments
// before all child loops.
func writeNode(w *bytes.Buffer, n container.Node, term byte) {
	type ordered interface {
		OrderedEntries() []container.Entry
	}
	oe, ok := n.(ordered)
	if !ok {
		for _, seg := range n.Segments() {
			writeSegment(w, seg, term)
		}
		return
	}
	writeEntries(w, oe.OrderedEntries(), term)
}

func writeEntries(w *bytes.Buffer, entries []container.Entry, term byte) {
	for _, e := range entries {
		if e.IsSegment() {
			writeSegment(w, e.Segment, term)
			continue
		}
		writeNode(w, e.Node, term)
	}
}

func writeTransactionBody(w *bytes.Buffer, txn *container.Transaction, term byte) {
	writeSegment(w, txn.ST, term)
	writeEntries(w, txn.OrderedEntries(), term)
	writeSegment(w, txn.SE, term)
}

func writeSegment(w *bytes.Buffer, s x12.Segment, term byte) {
	raw := s.String()
	if raw == "" {
		return
	}
	w.WriteString(raw)
	w.WriteByte(term)
}

// synthesize writes ISA, the owning GS, body (via fn), GE, and IEA
// into a single buffer using i's ISA/IEA text and group's GS/GE text
// verbatim, returning the finished wire-format document as a string.
func synthesize(i *container.Interchange, group *container.FunctionGroup, fn func(w *bytes.Buffer, term byte) error) (string, error) {
	var buf bytes.Buffer
	term := i.Delimiters.Terminator

	writeSegment(&buf, i.ISA, term)
	writeSegment(&buf, group.GS, term)
	if err := fn(&buf, term); err != nil {
		return "", err
	}
	writeSegment(&buf, group.GE, term)
	writeSegment(&buf, i.IEA, term)

	return buf.String(), nil
}
