// =============================================================================
// specfinder - Embedded Specification Source
// =============================================================================
//
// Embedded compiles its specifications from YAML documents baked into
// the binary at build time via go:embed, the same pattern the wider
// codebase uses for loading its own YAML configuration, just applied
// to a directory of files instead of one.
//
// =============================================================================

package specfinder

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/x12stream/x12/spec"
)

//go:embed specs/*.yaml
var embeddedSpecs embed.FS

// yamlSegment, yamlLoop, yamlHLoop, and yamlTransaction mirror the
// exported spec.* types field-for-field so that a document's shape in
// YAML matches the Go model without reflection tricks or tags beyond
// the field name mapping.
type yamlSegment struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

type yamlLoop struct {
	ID             string        `yaml:"id"`
	Name           string        `yaml:"name"`
	StartSegmentID string        `yaml:"start_segment_id"`
	MaxRepeat      int           `yaml:"max_repeat"`
	Segments       []yamlSegment `yaml:"segments"`
	Loops          []yamlLoop    `yaml:"loops"`
}

type yamlHLoop struct {
	LevelCode string        `yaml:"level_code"`
	Name      string        `yaml:"name"`
	Segments  []yamlSegment `yaml:"segments"`
	Loops     []yamlLoop    `yaml:"loops"`
	HLoops    []yamlHLoop   `yaml:"hloops"`
}

type yamlTransaction struct {
	FunctionalGroupCode string        `yaml:"functional_group_code"`
	VersionCode         string        `yaml:"version_code"`
	TransactionSetCode  string        `yaml:"transaction_set_code"`
	Segments            []yamlSegment `yaml:"segments"`
	Loops               []yamlLoop    `yaml:"loops"`
	HLoops              []yamlHLoop   `yaml:"hloops"`
}

func toSegments(in []yamlSegment) []spec.SegmentSpecification {
	out := make([]spec.SegmentSpecification, len(in))
	for i, s := range in {
		out[i] = spec.SegmentSpecification{ID: s.ID, Name: s.Name, Required: s.Required}
	}
	return out
}

func toLoops(in []yamlLoop) []*spec.LoopSpecification {
	out := make([]*spec.LoopSpecification, len(in))
	for i, l := range in {
		out[i] = &spec.LoopSpecification{
			ID:             l.ID,
			Name:           l.Name,
			StartSegmentID: l.StartSegmentID,
			MaxRepeat:      l.MaxRepeat,
			Segments:       toSegments(l.Segments),
			Loops:          toLoops(l.Loops),
		}
	}
	return out
}

func toHLoops(in []yamlHLoop) []*spec.HierarchicalLoopSpecification {
	out := make([]*spec.HierarchicalLoopSpecification, len(in))
	for i, h := range in {
		out[i] = &spec.HierarchicalLoopSpecification{
			LevelCode: h.LevelCode,
			Name:      h.Name,
			Segments:  toSegments(h.Segments),
			Loops:     toLoops(h.Loops),
			HLoops:    toHLoops(h.HLoops),
		}
	}
	return out
}

// LoadEmbedded parses every specs/*.yaml document baked into the
// binary and returns a StaticFinder keyed by each transaction's
// (functional group, version, transaction set) triple.
func LoadEmbedded() (*StaticFinder, error) {
	return loadFromFS(embeddedSpecs, "specs")
}

func loadFromFS(fsys fs.FS, dir string) (*StaticFinder, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded spec directory: %w", err)
	}

	specs := make(map[Key]*spec.TransactionSpecification)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := dir + "/" + entry.Name()
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var doc yamlTransaction
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		ts := &spec.TransactionSpecification{
			FunctionalGroupCode: doc.FunctionalGroupCode,
			VersionCode:         doc.VersionCode,
			TransactionSetCode:  doc.TransactionSetCode,
			Segments:            toSegments(doc.Segments),
			Loops:               toLoops(doc.Loops),
			HLoops:              toHLoops(doc.HLoops),
		}
		if errs := ts.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("%s: invalid specification: %v", path, errs[0])
		}

		key := Key{
			FunctionalGroupCode: ts.FunctionalGroupCode,
			VersionCode:         ts.VersionCode,
			TransactionSetCode:  ts.TransactionSetCode,
		}
		specs[key] = ts
	}

	return NewStaticFinder(specs), nil
}
