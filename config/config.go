// =============================================================================
// config - Parser Configuration
// =============================================================================
//
// This module loads the parser's YAML configuration file and resolves
// it into a ready-to-use parser.Options, following the same
// load-defaults-then-validate shape the rest of this codebase's
// configuration loading uses: read the file, gopkg.in/yaml.v3
// Unmarshal into a struct, apply defaults for anything left zero, then
// validate.
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/x12stream/x12/diagnostics"
	"github.com/ginjaninja78/x12stream/x12/parser"
	"github.com/ginjaninja78/x12stream/x12/specfinder"
)

// SpecSource names one specification repository to consult, in the
// order given, when resolving a transaction's specification.
type SpecSource struct {
	// Kind is "embedded" or "xlsx".
	Kind string `yaml:"kind"`

	// Path is the workbook path; required when Kind is "xlsx", unused
	// for "embedded".
	Path string `yaml:"path,omitempty"`
}

// ParserConfig is the on-disk shape of the parser's configuration.
type ParserConfig struct {
	// StrictMode controls whether structural anomalies abort the parse
	// with an aggregate error. Default: true.
	StrictMode bool `yaml:"strict_mode"`

	// IgnoredChars names bytes to silently skip between segments:
	// "CR", "LF", "TAB", or a literal single character. Default:
	// ["CR", "LF"].
	IgnoredChars []string `yaml:"ignored_chars"`

	// SpecSources lists specification repositories to consult, in
	// priority order. An empty list defaults to a single embedded
	// source.
	SpecSources []SpecSource `yaml:"spec_sources"`
}

// defaultParserConfig mirrors the teacher's default-main-config
// pattern: safe, ready-to-run values a caller need not supply.
func defaultParserConfig() ParserConfig {
	return ParserConfig{
		StrictMode:   true,
		IgnoredChars: []string{"CR", "LF"},
		SpecSources:  []SpecSource{{Kind: "embedded"}},
	}
}

// LoadParserConfig reads and validates the YAML configuration at path,
// applying defaults for any field the file leaves unset.
func LoadParserConfig(path string) (*ParserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parser config %s: %w", path, err)
	}

	cfg := defaultParserConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse parser config %s: %w", path, err)
	}

	if len(cfg.SpecSources) == 0 {
		cfg.SpecSources = []SpecSource{{Kind: "embedded"}}
	}
	if len(cfg.IgnoredChars) == 0 {
		cfg.IgnoredChars = []string{"CR", "LF"}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid parser config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *ParserConfig) validate() error {
	for i, src := range c.SpecSources {
		switch src.Kind {
		case "embedded":
			if src.Path != "" {
				return fmt.Errorf("spec_sources[%d]: kind %q does not take a path", i, src.Kind)
			}
		case "xlsx":
			if src.Path == "" {
				return fmt.Errorf("spec_sources[%d]: kind %q requires a path", i, src.Kind)
			}
		default:
			return fmt.Errorf("spec_sources[%d]: unknown kind %q", i, src.Kind)
		}
	}
	return nil
}

func resolveIgnoredChar(name string) (byte, error) {
	switch name {
	case "CR":
		return '\r', nil
	case "LF":
		return '\n', nil
	case "TAB":
		return '\t', nil
	default:
		if len(name) != 1 {
			return 0, fmt.Errorf("ignored_chars entry %q must be CR, LF, TAB, or a single character", name)
		}
		return name[0], nil
	}
}

// BuildParserOptions resolves c into a parser.Options: ignored chars
// decoded to bytes and every configured SpecSource loaded into a
// specfinder.Composite, first source wins. A non-nil logger is wired
// both as the parser's narration sink and as the target for lenient-
// mode SegmentWarnings, so a caller need not write its own adapter.
func (c *ParserConfig) BuildParserOptions(logger parser.Logger) (parser.Options, error) {
	ignored := make([]byte, 0, len(c.IgnoredChars))
	for _, name := range c.IgnoredChars {
		b, err := resolveIgnoredChar(name)
		if err != nil {
			return parser.Options{}, err
		}
		ignored = append(ignored, b)
	}

	var finders []specfinder.Finder
	for _, src := range c.SpecSources {
		switch src.Kind {
		case "embedded":
			f, err := specfinder.LoadEmbedded()
			if err != nil {
				return parser.Options{}, fmt.Errorf("load embedded specifications: %w", err)
			}
			finders = append(finders, f)
		case "xlsx":
			f, err := specfinder.LoadXLSXRepository(src.Path)
			if err != nil {
				return parser.Options{}, fmt.Errorf("load XLSX specifications from %s: %w", src.Path, err)
			}
			finders = append(finders, f)
		}
	}

	opts := parser.Options{
		StrictMode:   c.StrictMode,
		IgnoredChars: ignored,
		SpecFinder:   specfinder.NewComposite(finders...),
	}
	if logger != nil {
		opts.Logger = logger
		opts.WarningHandler = func(w diagnostics.SegmentWarning) {
			logger.Warn("%s", w.String())
		}
	}
	return opts, nil
}
