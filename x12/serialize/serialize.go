// =============================================================================
// serialize - Container Tree to Wire Format
// =============================================================================
//
// This package walks a parsed container tree and re-emits it as a raw
// X12 byte stream, the reverse of the streamreader/parser pipeline. It
// writes straight into a byte buffer segment by segment rather than
// going through any intermediate document model or reflection-driven
// marshaler, the same manual, buffer-driven approach the teacher uses
// to write XML in internal/xmlwriter/writer.go, just walking segments
// instead of XML elements.
//
// Byte-for-byte equality with the original input is the goal whenever
// the source used canonical terminator placement and no segment was
// forced into place during a lenient parse.
//
// =============================================================================

package serialize

import (
	"bytes"
	"io"

	"github.com/ginjaninja78/x12stream/x12/container"
)

// Interchange renders i back to its wire-format byte representation.
func Interchange(i *container.Interchange) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteInterchange(&buf, i); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteInterchange writes i to w, walking every group, transaction,
// loop, and hierarchical loop in the order they were built and
// re-emitting each recorded segment followed by the interchange's
// terminator byte.
func WriteInterchange(w io.Writer, i *container.Interchange) error {
	term := i.Delimiters.Terminator

	if err := writeSegment(w, i.ISA, term); err != nil {
		return err
	}

	for _, group := range i.Groups {
		if err := writeSegment(w, group.GS, term); err != nil {
			return err
		}
		for _, txn := range group.Transactions {
			if err := writeSegment(w, txn.ST, term); err != nil {
				return err
			}
			if err := writeEntries(w, txn.OrderedEntries(), term); err != nil {
				return err
			}
			if err := writeSegment(w, txn.SE, term); err != nil {
				return err
			}
		}
		if err := writeSegment(w, group.GE, term); err != nil {
			return err
		}
	}

	for _, ta1 := range i.TA1s {
		if err := writeSegment(w, ta1, term); err != nil {
			return err
		}
	}

	return writeSegment(w, i.IEA, term)
}

// writeNode writes a Loop or HierarchicalLoop's own segments (the
// first of which is its starting/HL segment) interleaved with its
// nested loops in the true order AddSegment/AddLoop built them.
func writeNode(w io.Writer, n container.Node, term byte) error {
	type ordered interface {
		OrderedEntries() []container.Entry
	}
	oe, ok := n.(ordered)
	if !ok {
		for _, seg := range n.Segments() {
			if err := writeSegment(w, seg, term); err != nil {
				return err
			}
		}
		return nil
	}
	return writeEntries(w, oe.OrderedEntries(), term)
}

// writeEntries walks a container's direct segments and nested loops in
// the single insertion order they were added, so a transaction's or
// loop's own segments reproduce their true interleaving with whatever
// child loops were opened and closed around them, rather than all
// segments before all loops or vice versa.
func writeEntries(w io.Writer, entries []container.Entry, term byte) error {
	for _, e := range entries {
		if e.IsSegment() {
			if err := writeSegment(w, e.Segment, term); err != nil {
				return err
			}
			continue
		}
		if err := writeNode(w, e.Node, term); err != nil {
			return err
		}
	}
	return nil
}

func writeSegment(w io.Writer, s interface{ String() string }, term byte) error {
	raw := s.String()
	if raw == "" {
		return nil
	}
	if _, err := io.WriteString(w, raw); err != nil {
		return err
	}
	_, err := w.Write([]byte{term})
	return err
}
