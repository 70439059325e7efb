// =============================================================================
// x12 - Delimiters
// =============================================================================
//
// A Delimiters value records the four single-byte separators an X12
// interchange is framed with. They are discovered once, from the fixed
// byte offsets of the ISA segment, and carried unchanged through every
// container built from that interchange.
//
// =============================================================================

package x12

import "fmt"

// Delimiters holds the four separators discovered from an ISA segment.
type Delimiters struct {
	// Element separates the elements of a segment. ISA byte 3.
	Element byte

	// Component separates the sub-elements of a composite element.
	// ISA byte 104.
	Component byte

	// Repetition separates repeated elements within a single element
	// slot. Present in 5010 (ISA byte 82); zero in 4010, where the byte
	// is typically a space and repetition is not supported.
	Repetition byte

	// Terminator ends a segment. ISA byte 105.
	Terminator byte
}

// Valid reports whether the four configured separators are distinct.
// Repetition is excluded from the distinctness check when it is the
// zero value (not discovered / not applicable, as in 4010).
func (d Delimiters) Valid() error {
	seen := make(map[byte]string, 4)
	check := func(b byte, name string) error {
		if b == 0 {
			return nil
		}
		if other, ok := seen[b]; ok {
			return fmt.Errorf("delimiter collision: %s and %s both use %q", other, name, b)
		}
		seen[b] = name
		return nil
	}
	if err := check(d.Element, "element"); err != nil {
		return err
	}
	if err := check(d.Component, "component"); err != nil {
		return err
	}
	if err := check(d.Repetition, "repetition"); err != nil {
		return err
	}
	if err := check(d.Terminator, "terminator"); err != nil {
		return err
	}
	return nil
}

// HasRepetition reports whether a repetition separator was discovered.
func (d Delimiters) HasRepetition() bool {
	return d.Repetition != 0
}

// IsControlTerminator reports whether the terminator is a control byte
// (CR, LF, or TAB) for which trailing whitespace must be stripped after
// each segment is read.
func (d Delimiters) IsControlTerminator() bool {
	switch d.Terminator {
	case '\r', '\n', '\t':
		return true
	default:
		return false
	}
}
