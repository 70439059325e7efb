// =============================================================================
// container - The Parsed Document Tree
// =============================================================================
//
// This package holds the strictly tree-shaped structure the structural
// parser builds: Interchange at the root, FunctionGroup and
// Transaction framing it, and Loop / HierarchicalLoop nesting detail
// segments according to the specification. Every non-root node holds an
// upward parent reference; there are no cycles and no shared ownership.
//
// CAPABILITY DISPATCH:
//   The source system expresses Container / LoopContainer /
//   HierarchicalLoopContainer as a class hierarchy. Here they are two
//   small interfaces (spec.LoopContainer, spec.HierarchicalLoopContainer)
//   that the relevant node kinds implement; the structural parser
//   dispatches on those interfaces. Its one check of a concrete node
//   kind is detail placement stopping at the Transaction boundary.
//
// MUTATION DISCIPLINE:
//   Every node is built once by the parser and never mutated by any
//   other caller. Besides AddGroup, AddTransaction, and
//   SetTerminatingTrailer, which frame the envelope, AddSegment,
//   AddLoop, and AddHierarchicalLoop are the mutators, and each of
//   those three is idempotent-on-failure: a nil/error return leaves the
//   receiver exactly as it was.
//
// =============================================================================

package container

import (
	"fmt"

	"github.com/ginjaninja78/x12stream/x12"
	"github.com/ginjaninja78/x12stream/x12/spec"
)

// Node is implemented by every container tree node. Parent returns nil
// for the Interchange root.
type Node interface {
	Parent() Node
	Segments() []x12.Segment
}

// entryKind distinguishes the two kinds of direct member an ordered
// container can hold.
type entryKind int

const (
	entrySegment entryKind = iota
	entryChild
)

// orderEntry records one addition to a container's order log: either a
// segment (indexing into its segments slice) or a child node (indexing
// into its Children slice), in the sequence AddSegment/AddLoop/
// AddHierarchicalLoop were actually called.
type orderEntry struct {
	kind entryKind
	idx  int
}

// Entry is one direct member of a container in true document order:
// exactly one of Segment or Node is set. Produced by OrderedEntries,
// which a serializer walks instead of reading segments and child loops
// as two separate passes.
type Entry struct {
	Segment x12.Segment
	Node    Node
}

// IsSegment reports whether this entry is a bare segment rather than a
// nested loop.
func (e Entry) IsSegment() bool { return e.Node == nil }

// Interchange is the root of a parsed document: one ISA/IEA-framed
// envelope.
type Interchange struct {
	Delimiters x12.Delimiters
	ISA        x12.Segment
	IEA        x12.Segment
	Groups     []*FunctionGroup
	TA1s       []x12.Segment
}

func (i *Interchange) Parent() Node { return nil }

// Segments returns the TA1 segments attached directly to the
// interchange; ISA and IEA are carried in their own fields since every
// interchange has exactly one of each.
func (i *Interchange) Segments() []x12.Segment { return i.TA1s }

// AddSegment attaches s if it is a TA1; TA1 is the only segment id an
// Interchange accepts directly per the dispatch table.
func (i *Interchange) AddSegment(s x12.Segment, force bool) *x12.Segment {
	if !force && s.ID() != "TA1" {
		return nil
	}
	i.TA1s = append(i.TA1s, s)
	return &i.TA1s[len(i.TA1s)-1]
}

// AddGroup appends a new, empty FunctionGroup opened by gs.
func (i *Interchange) AddGroup(gs x12.Segment) *FunctionGroup {
	g := &FunctionGroup{parent: i, GS: gs}
	i.Groups = append(i.Groups, g)
	return g
}

// SetTerminatingTrailer records the IEA segment that closes this
// interchange.
func (i *Interchange) SetTerminatingTrailer(s x12.Segment) {
	i.IEA = s
}

// FunctionGroup frames one GS/GE pair inside an interchange, holding
// an ordered list of transactions belonging to one transaction family.
type FunctionGroup struct {
	parent       *Interchange
	GS           x12.Segment
	GE           x12.Segment
	Transactions []*Transaction
}

func (g *FunctionGroup) Parent() Node         { return g.parent }
func (g *FunctionGroup) Segments() []x12.Segment { return nil }

// AddTransaction appends a new, empty Transaction opened by st, scoped
// to the given specification.
func (g *FunctionGroup) AddTransaction(st x12.Segment, ts *spec.TransactionSpecification) *Transaction {
	t := &Transaction{parent: g, ST: st, Spec: ts}
	g.Transactions = append(g.Transactions, t)
	return t
}

// SetTerminatingTrailer records the GE segment that closes this
// function group.
func (g *FunctionGroup) SetTerminatingTrailer(s x12.Segment) {
	g.GE = s
}

// ControlNumber returns GS06, the group control number.
func (g *FunctionGroup) ControlNumber() string {
	return g.GS.Element(6)
}

// Transaction frames one ST/SE pair: a single business document. It
// may host both ordinary loops and hierarchical (HL) loops as direct
// children, interleaved with bare direct segments, all in document
// order.
type Transaction struct {
	parent   *FunctionGroup
	ST       x12.Segment
	SE       x12.Segment
	Spec     *spec.TransactionSpecification
	Children []Node
	segments []x12.Segment
	order    []orderEntry
}

func (t *Transaction) Parent() Node            { return t.parent }
func (t *Transaction) Segments() []x12.Segment { return t.segments }

// OrderedEntries returns this transaction's direct segments and child
// loops interleaved in the order AddSegment/AddLoop/
// AddHierarchicalLoop actually added them, so a caller can reproduce
// true document order instead of all segments followed by all loops.
func (t *Transaction) OrderedEntries() []Entry {
	out := make([]Entry, len(t.order))
	for i, oe := range t.order {
		switch oe.kind {
		case entrySegment:
			out[i] = Entry{Segment: t.segments[oe.idx]}
		case entryChild:
			out[i] = Entry{Node: t.Children[oe.idx]}
		}
	}
	return out
}

// AddSegment attaches s if its id is a direct segment of this
// transaction's specification.
func (t *Transaction) AddSegment(s x12.Segment, force bool) *x12.Segment {
	if !force && (t.Spec == nil || !t.Spec.AllowsSegment(s.ID())) {
		return nil
	}
	t.segments = append(t.segments, s)
	t.order = append(t.order, orderEntry{kind: entrySegment, idx: len(t.segments) - 1})
	return &t.segments[len(t.segments)-1]
}

// AddLoop constructs and attaches a new Loop if s's id matches some
// child loop's starting segment, implementing spec.LoopContainer.
func (t *Transaction) AddLoop(s x12.Segment) *Loop {
	if t.Spec == nil {
		return nil
	}
	ls := t.Spec.AllowedLoop(s.ID())
	if ls == nil {
		return nil
	}
	l := newLoop(t, ls, s)
	t.Children = append(t.Children, l)
	t.order = append(t.order, orderEntry{kind: entryChild, idx: len(t.Children) - 1})
	return l
}

// AllowedLoop implements spec.LoopContainer.
func (t *Transaction) AllowedLoop(segmentID string) *spec.LoopSpecification {
	if t.Spec == nil {
		return nil
	}
	return t.Spec.AllowedLoop(segmentID)
}

// AllowsHierarchicalLoop implements spec.HierarchicalLoopContainer.
func (t *Transaction) AllowsHierarchicalLoop(levelCode string) bool {
	return t.Spec != nil && t.Spec.AllowsHierarchicalLoop(levelCode)
}

// HierarchicalSpec implements spec.HierarchicalLoopContainer.
func (t *Transaction) HierarchicalSpec(levelCode string) *spec.HierarchicalLoopSpecification {
	if t.Spec == nil {
		return nil
	}
	return t.Spec.HierarchicalSpec(levelCode)
}

// HasHierarchicalSpecs implements spec.HierarchicalLoopContainer.
func (t *Transaction) HasHierarchicalSpecs() bool {
	return t.Spec != nil && t.Spec.HasHierarchicalSpecs()
}

// AddHierarchicalLoop constructs and attaches a new HierarchicalLoop
// for HL segment s at the given level code, enforcing that this
// transaction's specification allows that level directly.
func (t *Transaction) AddHierarchicalLoop(s x12.Segment, levelCode string) (*HierarchicalLoop, error) {
	hspec := t.HierarchicalSpec(levelCode)
	if hspec == nil {
		return nil, fmt.Errorf("transaction %s does not allow HL level %q directly", t.Spec.TransactionSetCode, levelCode)
	}
	h := newHierarchicalLoop(t, hspec, s)
	t.Children = append(t.Children, h)
	t.order = append(t.order, orderEntry{kind: entryChild, idx: len(t.Children) - 1})
	return h, nil
}

// SetTerminatingTrailer records the SE segment that closes this
// transaction.
func (t *Transaction) SetTerminatingTrailer(s x12.Segment) {
	t.SE = s
}

// ControlNumber returns ST02, the transaction control number.
func (t *Transaction) ControlNumber() string {
	return t.ST.Element(2)
}

// Loop is a named grouping of segments and nested loops, entered via a
// designated starting segment id.
type Loop struct {
	parent   Node
	Spec     *spec.LoopSpecification
	Children []Node
	segments []x12.Segment
	order    []orderEntry
}

func newLoop(parent Node, ls *spec.LoopSpecification, start x12.Segment) *Loop {
	l := &Loop{parent: parent, Spec: ls}
	l.segments = append(l.segments, start)
	l.order = append(l.order, orderEntry{kind: entrySegment, idx: 0})
	return l
}

func (l *Loop) Parent() Node            { return l.parent }
func (l *Loop) Segments() []x12.Segment { return l.segments }

// OrderedEntries returns this loop's direct segments and nested loops
// interleaved in the order AddSegment/AddLoop actually added them,
// including the starting segment that opened the loop. Promoted to
// HierarchicalLoop, whose AddSegment/AddLoop write into these same
// embedded fields.
func (l *Loop) OrderedEntries() []Entry {
	out := make([]Entry, len(l.order))
	for i, oe := range l.order {
		switch oe.kind {
		case entrySegment:
			out[i] = Entry{Segment: l.segments[oe.idx]}
		case entryChild:
			out[i] = Entry{Node: l.Children[oe.idx]}
		}
	}
	return out
}

// AddSegment attaches s if its id is a direct segment of this loop's
// specification.
func (l *Loop) AddSegment(s x12.Segment, force bool) *x12.Segment {
	if !force && (l.Spec == nil || !l.Spec.AllowsSegment(s.ID())) {
		return nil
	}
	l.segments = append(l.segments, s)
	l.order = append(l.order, orderEntry{kind: entrySegment, idx: len(l.segments) - 1})
	return &l.segments[len(l.segments)-1]
}

// AddLoop constructs and attaches a nested Loop if s's id matches a
// child loop's starting segment.
func (l *Loop) AddLoop(s x12.Segment) *Loop {
	if l.Spec == nil {
		return nil
	}
	ls := l.Spec.AllowedLoop(s.ID())
	if ls == nil {
		return nil
	}
	child := newLoop(l, ls, s)
	l.Children = append(l.Children, child)
	l.order = append(l.order, orderEntry{kind: entryChild, idx: len(l.Children) - 1})
	return child
}

// AllowedLoop implements spec.LoopContainer.
func (l *Loop) AllowedLoop(segmentID string) *spec.LoopSpecification {
	if l.Spec == nil {
		return nil
	}
	return l.Spec.AllowedLoop(segmentID)
}

// HierarchicalLoop is a Loop that additionally carries the explicit
// HL triple (id, parent id, level code), letting detail attach to a
// parent that is not its textual (nesting) parent.
type HierarchicalLoop struct {
	Loop
	ID        string // HL01
	ParentID  string // HL02
	LevelCode string // HL03
	HSpec     *spec.HierarchicalLoopSpecification
}

func newHierarchicalLoop(parent Node, hspec *spec.HierarchicalLoopSpecification, hl x12.Segment) *HierarchicalLoop {
	h := &HierarchicalLoop{
		Loop:      Loop{parent: parent},
		ID:        hl.Element(1),
		ParentID:  hl.Element(2),
		LevelCode: hl.Element(3),
		HSpec:     hspec,
	}
	h.Loop.segments = append(h.Loop.segments, hl)
	h.Loop.order = append(h.Loop.order, orderEntry{kind: entrySegment, idx: 0})
	return h
}

// AddSegment attaches s if its id is a direct segment of this HL
// level's specification.
func (h *HierarchicalLoop) AddSegment(s x12.Segment, force bool) *x12.Segment {
	if !force && (h.HSpec == nil || !h.HSpec.AllowsSegment(s.ID())) {
		return nil
	}
	h.segments = append(h.segments, s)
	h.order = append(h.order, orderEntry{kind: entrySegment, idx: len(h.segments) - 1})
	return &h.segments[len(h.segments)-1]
}

// AddLoop constructs and attaches a nested ordinary Loop if s's id
// matches a child loop's starting segment under this HL level.
func (h *HierarchicalLoop) AddLoop(s x12.Segment) *Loop {
	if h.HSpec == nil {
		return nil
	}
	ls := h.HSpec.AllowedLoop(s.ID())
	if ls == nil {
		return nil
	}
	child := newLoop(h, ls, s)
	h.Children = append(h.Children, child)
	h.order = append(h.order, orderEntry{kind: entryChild, idx: len(h.Children) - 1})
	return child
}

// AllowedLoop implements spec.LoopContainer.
func (h *HierarchicalLoop) AllowedLoop(segmentID string) *spec.LoopSpecification {
	if h.HSpec == nil {
		return nil
	}
	return h.HSpec.AllowedLoop(segmentID)
}

// AllowsHierarchicalLoop implements spec.HierarchicalLoopContainer.
func (h *HierarchicalLoop) AllowsHierarchicalLoop(levelCode string) bool {
	return h.HSpec != nil && h.HSpec.AllowsHierarchicalLoop(levelCode)
}

// HierarchicalSpec implements spec.HierarchicalLoopContainer.
func (h *HierarchicalLoop) HierarchicalSpec(levelCode string) *spec.HierarchicalLoopSpecification {
	if h.HSpec == nil {
		return nil
	}
	return h.HSpec.HierarchicalSpec(levelCode)
}

// HasHierarchicalSpecs implements spec.HierarchicalLoopContainer.
func (h *HierarchicalLoop) HasHierarchicalSpecs() bool {
	return h.HSpec != nil && h.HSpec.HasHierarchicalSpecs()
}

// AddHierarchicalLoop constructs and attaches a child HierarchicalLoop
// for HL segment s at the given level code, enforcing that this HL
// level's specification allows that child level directly.
func (h *HierarchicalLoop) AddHierarchicalLoop(s x12.Segment, levelCode string) (*HierarchicalLoop, error) {
	hspec := h.HierarchicalSpec(levelCode)
	if hspec == nil {
		return nil, fmt.Errorf("HL level %q does not allow child HL level %q directly", h.LevelCode, levelCode)
	}
	child := newHierarchicalLoop(h, hspec, s)
	h.Children = append(h.Children, child)
	h.order = append(h.order, orderEntry{kind: entryChild, idx: len(h.Children) - 1})
	return child, nil
}

// ChildNodes returns this loop's nested loops and hierarchical loops,
// in document order. Used by the unbundler to walk the tree without
// needing to know Loop's internal field layout.
func (l *Loop) ChildNodes() []Node {
	return l.Children
}

// LoopID returns the specification id of this loop, or "" if the loop
// has no loop specification. A HierarchicalLoop never has one (it
// carries HSpec instead), so its promoted LoopID always returns "".
func (l *Loop) LoopID() string {
	if l.Spec == nil {
		return ""
	}
	return l.Spec.ID
}

// Breadcrumb returns the diagnostic label for this container used when
// the structural parser records a container-stack breadcrumb: the loop
// id, or "{loopId}[{hlId}]" for a hierarchical loop.
func (l *Loop) Breadcrumb() string {
	return l.LoopID()
}

// Breadcrumb for a HierarchicalLoop combines the loop id from its
// HSpec encoding with the HL01 value, matching spec.md §4.3.2's
// "{loopId}[{hlId}]" format. HierarchicalLoopSpecification has no
// "loop id" of its own (it is keyed by level code), so the level code
// stands in for it here.
func (h *HierarchicalLoop) Breadcrumb() string {
	levelCode := ""
	if h.HSpec != nil {
		levelCode = h.HSpec.LevelCode
	}
	return fmt.Sprintf("%s[%s]", levelCode, h.ID)
}
