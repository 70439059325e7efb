// =============================================================================
// diagnostics - Structural Parse Errors and Warnings
// =============================================================================
//
// This package mirrors the accumulate-don't-throw validation style the
// wider codebase uses elsewhere: a parse run collects every structural
// problem it encounters rather than aborting on the first one, then
// hands the caller a single AggregateError (in strict mode) or streams
// individual SegmentWarning values through a callback (in lenient
// mode). Severity is a property of the finding, not of the parse mode.
//
// =============================================================================

package diagnostics

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrorKind classifies why a segment could not be placed into the
// container tree.
type ErrorKind string

const (
	// KindMismatchSegment means a trailer (IEA/GE/SE) was seen with no
	// matching opener.
	KindMismatchSegment ErrorKind = "MismatchSegment"

	// KindMissingPrecedingSegment means a GS was seen with no open
	// interchange.
	KindMissingPrecedingSegment ErrorKind = "MissingPrecedingSegment"

	// KindMissingGsSegment means an ST was seen with no open function
	// group.
	KindMissingGsSegment ErrorKind = "MissingGsSegment"

	// KindInvalidHLoopSpecification means an HL segment named a level
	// code that no reachable HierarchicalLoopContainer allows.
	KindInvalidHLoopSpecification ErrorKind = "InvalidHLoopSpecification"

	// KindMissingParentID means an HL segment's parent id did not
	// match any previously seen HL id in this transaction.
	KindMissingParentID ErrorKind = "MissingParentId"

	// KindHLoopIdExists means an HL segment's id duplicates one
	// already recorded for this transaction.
	KindHLoopIdExists ErrorKind = "HLoopIdExists"

	// KindSegmentCannotBeIdentified means the detail placement walk
	// found no container on the ascent path willing to accept the
	// segment, and it matched no loop starting id either.
	KindSegmentCannotBeIdentified ErrorKind = "SegmentCannotBeIdentified"

	// KindUnresolvedSpecification means no TransactionSpecification
	// could be found for an ST segment's functional group, version,
	// and transaction set code triple.
	KindUnresolvedSpecification ErrorKind = "UnresolvedSpecification"
)

// ControlNumbers identifies which envelope, group, and transaction
// were open when a diagnostic was raised, read directly off the
// active containers at the moment of the event (ISA13, GS06, ST02).
// Any field may be empty if that level was not yet open.
type ControlNumbers struct {
	Interchange string
	Group       string
	Transaction string
}

// StructuralError describes one segment placement failure, with enough
// context to locate it in the source stream and in the partially built
// tree.
type StructuralError struct {
	Kind          ErrorKind
	SegmentID     string
	SegmentString string // the offending segment's raw text, e.g. "HL*1**20*0"
	SegmentIndex  int    // 1-based ordinal position, restarted at 1 by each ST
	Breadcrumb    string // e.g. "22[2]" identifying the active container when the failure occurred
	ControlNumbers ControlNumbers
	CorrelationID string
	Detail        string
	FileIsValid   bool
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: segment %s at index %d", e.Kind, e.SegmentID, e.SegmentIndex)
	if e.Breadcrumb != "" {
		fmt.Fprintf(&b, " (in %s)", e.Breadcrumb)
	}
	if e.ControlNumbers.Transaction != "" {
		fmt.Fprintf(&b, " (ST02=%s)", e.ControlNumbers.Transaction)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	fmt.Fprintf(&b, " [%s]", e.CorrelationID)
	return b.String()
}

// SegmentWarning is the lenient-mode counterpart of StructuralError: the
// same finding, delivered through a callback instead of aborting the
// parse or being collected into an AggregateError.
type SegmentWarning struct {
	Kind          ErrorKind
	SegmentID     string
	SegmentString string // the offending segment's raw text, e.g. "HL*1**20*0"
	SegmentIndex  int
	Breadcrumb    string
	ControlNumbers ControlNumbers
	CorrelationID string
	Detail        string
	FileIsValid   bool // always false: a SegmentWarning is only ever raised for a structural anomaly
}

func (w SegmentWarning) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: segment %s at index %d", w.Kind, w.SegmentID, w.SegmentIndex)
	if w.Breadcrumb != "" {
		fmt.Fprintf(&b, " (in %s)", w.Breadcrumb)
	}
	if w.ControlNumbers.Transaction != "" {
		fmt.Fprintf(&b, " (ST02=%s)", w.ControlNumbers.Transaction)
	}
	if w.Detail != "" {
		fmt.Fprintf(&b, ": %s", w.Detail)
	}
	fmt.Fprintf(&b, " [%s]", w.CorrelationID)
	return b.String()
}

// NewCorrelationID returns a fresh UUID used to tie together every
// diagnostic raised by a single Parse call, so that a caller with
// several concurrent parses in flight can still group log lines and
// errors back to the run that produced them.
func NewCorrelationID() string {
	return uuid.NewString()
}

// AggregateError collects every StructuralError raised during one
// parse: every finding in strict mode, only the nonDowngradable ones
// in lenient mode. A parse that raises nothing returns a nil
// AggregateError, not an empty non-nil one, so callers can use the
// ordinary `if err != nil` idiom.
type AggregateError struct {
	CorrelationID string
	Errors        []*StructuralError
}

func (a *AggregateError) Error() string {
	if len(a.Errors) == 1 {
		return a.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d structural errors [%s]:", len(a.Errors), a.CorrelationID)
	for _, e := range a.Errors {
		b.WriteString("\n  - ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Unwrap lets errors.Is/errors.As reach into individual StructuralError
// values, matching the standard multi-error convention.
func (a *AggregateError) Unwrap() []error {
	errs := make([]error, len(a.Errors))
	for i, e := range a.Errors {
		errs[i] = e
	}
	return errs
}

// Collector accumulates StructuralError values during a single parse
// and finalizes them into an AggregateError (strict mode) or, with a
// warning sink configured, emits a SegmentWarning for each one instead
// (lenient mode).
type Collector struct {
	CorrelationID string
	Strict        bool
	OnWarning     func(SegmentWarning)

	errors []*StructuralError
}

// NewCollector creates a Collector stamped with a fresh correlation id.
func NewCollector(strict bool, onWarning func(SegmentWarning)) *Collector {
	return &Collector{
		CorrelationID: NewCorrelationID(),
		Strict:        strict,
		OnWarning:     onWarning,
	}
}

// nonDowngradable lists findings severe enough that lenient mode must
// still surface them as blocking errors rather than warnings: a
// duplicate HL id corrupts the hloops lookup table for the rest of the
// transaction, so recovering from it in place is not safe.
var nonDowngradable = map[ErrorKind]bool{
	KindHLoopIdExists: true,
}

// Report records one structural finding. In strict mode, or for a kind
// listed in nonDowngradable, it is collected for the eventual
// AggregateError; otherwise, in lenient mode, it is converted to a
// SegmentWarning and delivered synchronously to OnWarning, if set.
// segmentString is the offending segment's raw, unterminated text.
func (c *Collector) Report(kind ErrorKind, segmentID, segmentString string, segmentIndex int, breadcrumb string, cn ControlNumbers, detail string) {
	if c.Strict || nonDowngradable[kind] {
		c.errors = append(c.errors, &StructuralError{
			Kind:           kind,
			SegmentID:      segmentID,
			SegmentString:  segmentString,
			SegmentIndex:   segmentIndex,
			Breadcrumb:     breadcrumb,
			ControlNumbers: cn,
			CorrelationID:  c.CorrelationID,
			Detail:         detail,
			FileIsValid:    false,
		})
		return
	}
	if c.OnWarning != nil {
		c.OnWarning(SegmentWarning{
			Kind:           kind,
			SegmentID:      segmentID,
			SegmentString:  segmentString,
			SegmentIndex:   segmentIndex,
			Breadcrumb:     breadcrumb,
			ControlNumbers: cn,
			CorrelationID:  c.CorrelationID,
			Detail:         detail,
			FileIsValid:    false,
		})
	}
}

// HasErrors reports whether any errors were collected (every finding
// in strict mode, a nonDowngradable one in lenient mode).
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Finish returns the accumulated errors as an AggregateError, or nil if
// none were recorded. In lenient mode this is normally nil, since
// ordinary findings are downgraded to warnings as they are reported;
// it comes back non-nil only when a nonDowngradable kind was raised.
func (c *Collector) Finish() *AggregateError {
	if len(c.errors) == 0 {
		return nil
	}
	return &AggregateError{CorrelationID: c.CorrelationID, Errors: c.errors}
}
