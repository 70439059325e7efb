// =============================================================================
// streamreader - Interchange Framing
// =============================================================================
//
// This package converts a raw byte stream into a sequence of segment
// strings. It is the leaf of the parsing pipeline: it knows nothing
// about segment meaning, loop structure, or specifications. It only
// discovers the four delimiter bytes from the ISA header and then
// hands back one segment string at a time.
//
// READING PROCESS:
//   1. Read exactly the first 106 bytes. Fail with MalformedHeaderError
//      if the stream is shorter or does not start with "ISA".
//   2. Extract the four delimiter bytes at their fixed offsets.
//   3. On each ReadSegment call, read up to (and excluding) the next
//      terminator byte, skipping any bytes in the ignored-char set.
//
// CUSTOMIZATION:
//   - WithIgnoredChars configures which bytes are silently skipped
//     between segments (typically CR, LF for files with line breaks
//     inserted for readability).
//
// =============================================================================

package streamreader

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ginjaninja78/x12stream/x12"
)

// headerLen is the number of bytes in a canonical ISA segment
// including its terminator position, per the fixed-width ISA layout.
const headerLen = 106

// MalformedHeaderError is returned when the stream does not begin with
// a well-formed, full-length ISA segment.
type MalformedHeaderError struct {
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed ISA header: %s", e.Reason)
}

// Reader frames segments out of an underlying byte stream.
type Reader struct {
	r            *bufio.Reader
	delimiters   x12.Delimiters
	isaSegment   string
	ignoredChars map[byte]bool
}

// Option configures a Reader at construction time.
type Option func(*Reader)

// WithIgnoredChars marks bytes that are silently skipped when they
// appear between segments (typically CR, LF in files with inserted
// line breaks). The segment terminator itself is never treated as an
// ignored char even if also listed here.
func WithIgnoredChars(chars ...byte) Option {
	return func(r *Reader) {
		for _, c := range chars {
			r.ignoredChars[c] = true
		}
	}
}

// New reads the first 106 bytes of r, discovers the delimiters, and
// returns a Reader ready to frame subsequent segments.
//
// PARAMETERS:
//   - r: the underlying byte stream.
//   - opts: reader options (e.g. WithIgnoredChars).
//
// RETURNS:
//   - A Reader positioned immediately after the ISA header.
//   - *MalformedHeaderError if the stream is too short or not an ISA.
func New(r io.Reader, opts ...Option) (*Reader, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	reader := &Reader{
		r:            br,
		ignoredChars: make(map[byte]bool),
	}
	for _, opt := range opts {
		opt(reader)
	}

	header := make([]byte, headerLen)
	n, err := io.ReadFull(reader.r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return nil, &MalformedHeaderError{Reason: "stream shorter than 106 bytes"}
		}
		return nil, fmt.Errorf("read ISA header: %w", err)
	}
	if n < headerLen {
		return nil, &MalformedHeaderError{Reason: fmt.Sprintf("stream has only %d bytes, need 106", n)}
	}
	if string(header[0:3]) != "ISA" {
		return nil, &MalformedHeaderError{Reason: fmt.Sprintf("expected ISA prefix, got %q", string(header[0:3]))}
	}

	reader.isaSegment = string(header)
	reader.delimiters = x12.Delimiters{
		Element:    header[3],
		Repetition: repetitionByte(header[82]),
		Component:  header[104],
		Terminator: header[105],
	}
	if err := reader.delimiters.Valid(); err != nil {
		return nil, &MalformedHeaderError{Reason: err.Error()}
	}

	return reader, nil
}

// repetitionByte treats a space (the 4010 placeholder) as "not
// discovered" rather than a real separator.
func repetitionByte(b byte) byte {
	if b == ' ' {
		return 0
	}
	return b
}

// Delimiters returns the four separators discovered from the ISA
// header.
func (r *Reader) Delimiters() x12.Delimiters {
	return r.delimiters
}

// ISASegment returns the exact 106-byte ISA prefix as read from the
// stream.
func (r *Reader) ISASegment() string {
	return r.isaSegment
}

// ReadSegment returns the next segment string, without its
// terminator, skipping any configured ignored bytes. End of stream is
// reported as ("", io.EOF); the parser stops reading the interchange
// on io.EOF. If any of the four delimiters is a control byte (CR, LF,
// or TAB), trailing whitespace is trimmed from each segment.
func (r *Reader) ReadSegment() (string, error) {
	var buf []byte
	sawAny := false

	for {
		b, err := r.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if sawAny {
					return string(buf), nil
				}
				return "", io.EOF
			}
			return "", fmt.Errorf("read segment: %w", err)
		}

		if b == r.delimiters.Terminator {
			d := r.delimiters
			strip := false
			for _, c := range []byte{d.Element, d.Component, d.Repetition, d.Terminator} {
				switch c {
				case '\r', '\n', '\t':
					strip = true
				}
			}
			if strip {
				buf = trimTrailingWhitespace(buf)
			}
			return string(buf), nil
		}

		if r.ignoredChars[b] {
			continue
		}

		sawAny = true
		buf = append(buf, b)
	}
}

func trimTrailingWhitespace(buf []byte) []byte {
	end := len(buf)
	for end > 0 {
		switch buf[end-1] {
		case ' ', '\t', '\r', '\n':
			end--
		default:
			goto done
		}
	}
done:
	return buf[:end]
}

// ReadSegmentID returns the substring of s up to (but excluding) the
// first element separator, or all of s if the separator is absent.
func ReadSegmentID(s string, elementSep byte) string {
	for i := 0; i < len(s); i++ {
		if s[i] == elementSep {
			return s[:i]
		}
	}
	return s
}
