package parser

import (
	"strings"

	"github.com/ginjaninja78/x12stream/x12"
	"github.com/ginjaninja78/x12stream/x12/container"
	"github.com/ginjaninja78/x12stream/x12/diagnostics"
)

// placeDetail implements the detail placement algorithm: walk
// current_container upward, trying AddSegment then AddLoop at each
// level, until the segment is placed, a Transaction boundary is
// reached with nothing willing to take it, or the walk falls off the
// tree (which silently drops the segment — it was never inside any
// transaction to begin with).
func (st *parseState) placeDetail(s x12.Segment) {
	original := st.currentContainer
	var node container.Node = original
	var breadcrumbs []string

	for node != nil {
		if dc, ok := node.(detailContainer); ok {
			if seg := dc.AddSegment(s, false); seg != nil {
				st.currentContainer = dc
				if s.ID() == "LE" {
					if parent, ok := node.Parent().(detailContainer); ok {
						st.currentContainer = parent
					}
				}
				return
			}
		}

		if la, ok := node.(loopAdder); ok {
			if newLoop := la.AddLoop(s); newLoop != nil {
				st.currentContainer = newLoop
				return
			}
		}

		if _, isTransaction := node.(*container.Transaction); isTransaction {
			trail := strings.Join(breadcrumbs, " > ")
			if st.parser.strict {
				st.collector.Report(diagnostics.KindSegmentCannotBeIdentified, s.ID(), s.String(), st.segmentIndex, trail,
					st.controlNumbers(), "no specification in scope accepted this segment")
				return
			}
			if oc, ok := original.(detailContainer); ok {
				oc.AddSegment(s, true)
			}
			last := ""
			if len(breadcrumbs) > 0 {
				last = breadcrumbs[len(breadcrumbs)-1]
			}
			st.collector.Report(diagnostics.KindSegmentCannotBeIdentified, s.ID(), s.String(), st.segmentIndex, trail,
				st.controlNumbers(), "forced attach to original container; last popped loop "+last)
			return
		}

		breadcrumbs = append(breadcrumbs, detailBreadcrumb(node))
		node = node.Parent()
	}
}

func detailBreadcrumb(node container.Node) string {
	type breadcrumber interface {
		Breadcrumb() string
	}
	if b, ok := node.(breadcrumber); ok {
		return b.Breadcrumb()
	}
	return ""
}
