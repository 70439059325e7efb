package parser

import (
	"github.com/ginjaninja78/x12stream/x12"
	"github.com/ginjaninja78/x12stream/x12/container"
	"github.com/ginjaninja78/x12stream/x12/diagnostics"
)

// placeHierarchicalLoop implements the HL placement algorithm: it
// walks current_container upward to find an ancestor willing to host
// the HL at the given level code, reconciles the explicit parent_id
// against the in-flight hloops map, and registers the new
// HierarchicalLoop as current_container on success.
func (st *parseState) placeHierarchicalLoop(s x12.Segment) {
	id := s.Element(1)
	parentID := s.Element(2)
	levelCode := s.Element(3)

	accepting := st.ascendToAccepting(levelCode)
	if accepting == nil {
		st.reportError(diagnostics.KindInvalidHLoopSpecification, s, "no ancestor accepts HL level "+levelCode)
		return
	}

	var attachTo hloopAdder
	parentFound := false

	if parentID != "" {
		if parent, ok := st.hloops[parentID]; ok {
			attachTo = parent
			parentFound = true
		} else if st.parser.strict {
			st.reportError(diagnostics.KindMissingParentID, s, "parent_id "+parentID+" not found in this transaction")
			return
		} else {
			st.reportWarning(diagnostics.KindMissingParentID, s, st.breadcrumb(), "parent_id "+parentID+" not found; falling through to nearest hierarchical ancestor")
		}
	}

	if !parentFound {
		ancestor := st.ascendToHierarchicalSpecs(accepting)
		if ancestor == nil {
			st.reportError(diagnostics.KindInvalidHLoopSpecification, s, "no ancestor defines hierarchical levels")
			return
		}
		attachTo = ancestor
	}

	if _, exists := st.hloops[id]; exists {
		st.reportError(diagnostics.KindHLoopIdExists, s, "duplicate HL id "+id)
		return
	}

	newHL, err := attachTo.AddHierarchicalLoop(s, levelCode)
	if err != nil {
		st.reportError(diagnostics.KindInvalidHLoopSpecification, s, err.Error())
		return
	}

	st.hloops[id] = newHL
	st.currentContainer = newHL
}

// ascendToAccepting walks current_container (inclusive) upward until
// it finds a HierarchicalLoopContainer that allows the given level
// code, or returns nil if the root is reached without a match.
func (st *parseState) ascendToAccepting(levelCode string) hloopAdder {
	var n container.Node = st.currentContainer
	for n != nil {
		if h, ok := n.(hloopAdder); ok && h.AllowsHierarchicalLoop(levelCode) {
			return h
		}
		n = n.Parent()
	}
	return nil
}

// ascendToHierarchicalSpecs walks upward from start (inclusive), the
// ancestor ascendToAccepting settled on, until it finds any container
// that defines hierarchical levels at all, regardless of which level
// code they accept.
func (st *parseState) ascendToHierarchicalSpecs(start hloopAdder) hloopAdder {
	n, _ := start.(container.Node)
	for n != nil {
		if h, ok := n.(hloopAdder); ok && h.HasHierarchicalSpecs() {
			return h
		}
		n = n.Parent()
	}
	return nil
}
