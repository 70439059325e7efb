package spec

// LoopContainer is implemented by container nodes that may host child
// loops: Transaction, Loop, and HierarchicalLoop. AllowedLoop reports
// the loop specification that should be entered for a given starting
// segment id, or nil if none of this container's child loops start on
// that id.
type LoopContainer interface {
	AllowedLoop(segmentID string) *LoopSpecification
}

// HierarchicalLoopContainer is implemented by container nodes that may
// host HL children filtered by level code: Transaction and
// HierarchicalLoop.
type HierarchicalLoopContainer interface {
	AllowsHierarchicalLoop(levelCode string) bool
	HierarchicalSpec(levelCode string) *HierarchicalLoopSpecification
	HasHierarchicalSpecs() bool
}
