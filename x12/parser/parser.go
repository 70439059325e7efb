// =============================================================================
// parser - Structural Parser
// =============================================================================
//
// This is the dispatch-and-placement engine: it turns a flat sequence
// of framed segments into the nested envelope/group/transaction/loop
// tree, consulting for every placement decision the transaction
// specification a specfinder.Finder resolved at that transaction's ST.
// It never interprets a segment's business meaning.
//
// A Parser instance is reusable across calls to ParseMultiple /
// ParseMultipleString but each call runs its own fresh parse state —
// there is no shared mutable state between calls, so a single Parser
// may be used from multiple goroutines provided its SpecFinder is
// itself safe for concurrent use (specfinder.StaticFinder and
// specfinder.Composite both are).
//
// =============================================================================

package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/x12stream/x12/container"
	"github.com/ginjaninja78/x12stream/x12/diagnostics"
	"github.com/ginjaninja78/x12stream/x12/specfinder"
	"github.com/ginjaninja78/x12stream/x12/streamreader"
)

// Options configures a Parser. The zero value is lenient (StrictMode
// false); use DefaultOptions for the strict-by-default posture most
// callers want.
type Options struct {
	// StrictMode controls whether structural anomalies abort the parse
	// with an aggregate error (true) or are downgraded to warnings and
	// recovered from in place (false).
	StrictMode bool

	// IgnoredChars are bytes silently skipped between segments,
	// typically CR and LF for files with inserted line breaks.
	IgnoredChars []byte

	// SpecFinder resolves transaction specifications. Defaults to
	// specfinder.LoadEmbedded() if nil.
	SpecFinder specfinder.Finder

	// WarningHandler receives one SegmentWarning per downgraded
	// anomaly in lenient mode. Called synchronously, inline with the
	// parse, before parsing continues.
	WarningHandler func(diagnostics.SegmentWarning)

	// Logger narrates parse activity. Defaults to nil (silent); pass
	// StdoutLogger{} for the same stdout/prefix behavior the rest of
	// this module's ambient stack uses.
	Logger Logger
}

// DefaultOptions returns strict-mode Options with CR/LF ignored and
// the embedded specification finder, matching the defaults documented
// for the wire format.
func DefaultOptions() Options {
	return Options{
		StrictMode:   true,
		IgnoredChars: []byte{'\r', '\n'},
	}
}

// Parser is the structural parser. Build with New.
type Parser struct {
	strict         bool
	ignoredChars   []byte
	finder         specfinder.Finder
	warningHandler func(diagnostics.SegmentWarning)
	logger         Logger
}

// New builds a Parser from opts, defaulting SpecFinder to the
// embedded finder if none was supplied.
func New(opts Options) (*Parser, error) {
	finder := opts.SpecFinder
	if finder == nil {
		embedded, err := specfinder.LoadEmbedded()
		if err != nil {
			return nil, fmt.Errorf("load default embedded specifications: %w", err)
		}
		finder = embedded
	}
	return &Parser{
		strict:         opts.StrictMode,
		ignoredChars:   opts.IgnoredChars,
		finder:         finder,
		warningHandler: opts.WarningHandler,
		logger:         opts.Logger,
	}, nil
}

// ParseMultipleString parses s as an X12 byte stream, a convenience
// wrapper over ParseMultiple for callers already holding the document
// in memory.
func (p *Parser) ParseMultipleString(s string) ([]*container.Interchange, error) {
	return p.ParseMultiple(strings.NewReader(s))
}

// ParseMultiple reads r to completion and returns every interchange
// framed in it. An empty stream returns an empty, non-nil slice and a
// nil error. On a structural failure (any reported finding in strict
// mode; in lenient mode, a finding that is never downgraded, such as
// HLoopIdExists), the returned slice is nil and err is a
// *diagnostics.AggregateError; no partially built tree is ever
// returned alongside an error.
func (p *Parser) ParseMultiple(r io.Reader) ([]*container.Interchange, error) {
	var opts []streamreader.Option
	if len(p.ignoredChars) > 0 {
		opts = append(opts, streamreader.WithIgnoredChars(p.ignoredChars...))
	}

	// One buffered reader is shared across every interchange framed
	// from this stream; streamreader.New reuses it rather than
	// wrapping a fresh buffer each time, which would strand any bytes
	// it had already read ahead into its internal buffer.
	br := bufio.NewReader(r)

	st := &parseState{
		parser:       p,
		collector:    diagnostics.NewCollector(p.strict, p.warningHandler),
		hloops:       make(map[string]*container.HierarchicalLoop),
		interchanges: []*container.Interchange{},
	}

	for {
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("peek next interchange: %w", err)
		}

		sr, err := streamreader.New(br, opts...)
		if err != nil {
			return nil, err
		}
		st.reader = sr
		if err := st.runInterchange(); err != nil {
			return nil, err
		}
	}

	if agg := st.collector.Finish(); agg != nil {
		if p.logger != nil {
			p.logger.Error("parse failed with %d structural errors [%s]", len(agg.Errors), agg.CorrelationID)
		}
		return nil, agg
	}
	if p.logger != nil {
		p.logger.Info("parsed %d interchange(s) [%s]", len(st.interchanges), st.collector.CorrelationID)
	}
	return st.interchanges, nil
}
