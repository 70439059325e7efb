// =============================================================================
// specfinder - Specification Lookup
// =============================================================================
//
// A Finder resolves the (functional group code, version code,
// transaction set code) triple taken from a GS/ST pair into a built
// *spec.TransactionSpecification. Implementations are expected to be
// safe for concurrent use once built; nothing in this package mutates
// a specification after it is returned.
//
// =============================================================================

package specfinder

import "github.com/ginjaninja78/x12stream/x12/spec"

// Key identifies one transaction specification.
type Key struct {
	FunctionalGroupCode string
	VersionCode         string
	TransactionSetCode  string
}

// Finder resolves a Key to a transaction specification.
type Finder interface {
	Find(key Key) (*spec.TransactionSpecification, bool)
}

// StaticFinder is a Finder backed by an in-memory map, built once at
// construction and never mutated afterward. Embedded and XLSXRepository
// both produce a StaticFinder; Composite wraps several of them.
type StaticFinder struct {
	specs map[Key]*spec.TransactionSpecification
}

// NewStaticFinder builds a StaticFinder from a pre-populated map. The
// map is retained, not copied; callers must not mutate it afterward.
func NewStaticFinder(specs map[Key]*spec.TransactionSpecification) *StaticFinder {
	return &StaticFinder{specs: specs}
}

// Find implements Finder.
func (f *StaticFinder) Find(key Key) (*spec.TransactionSpecification, bool) {
	s, ok := f.specs[key]
	return s, ok
}

// Composite tries each Finder in order and returns the first hit,
// mirroring the fallback-chain shape of a multi-department config load
// elsewhere in this codebase: several sources are consulted in a fixed
// priority order, and the first one with an answer wins.
type Composite struct {
	finders []Finder
}

// NewComposite builds a Composite that consults finders in order.
func NewComposite(finders ...Finder) *Composite {
	return &Composite{finders: finders}
}

// Find implements Finder.
func (c *Composite) Find(key Key) (*spec.TransactionSpecification, bool) {
	for _, f := range c.finders {
		if s, ok := f.Find(key); ok {
			return s, true
		}
	}
	return nil, false
}
