// Package scenario holds the scenario source model: discovery of *.glyph
// files, the typed step variants a scenario decomposes into, and extraction
// of cross-scenario references from step text.
package scenario

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/glyphtool/glyph/internal/fsx"
)

// SourceExt is the scenario file extension.
const SourceExt = ".glyph"

// SpecExt is the extension of generated test scripts.
const SpecExt = ".spec.js"

// Scenario is one natural-language scenario. Immutable once loaded; the
// source text is the input for hashing and step derivation.
type Scenario struct {
	Name string
	Path string
	Text string
}

// SpecPath returns where the generated script for this scenario is written:
// next to the source, with the spec extension.
func (s Scenario) SpecPath() string {
	return strings.TrimSuffix(s.Path, SourceExt) + SpecExt
}

// Load reads one scenario file. The name is the filename stem.
func Load(fs fsx.FS, path string) (Scenario, error) {
	text, err := fs.ReadText(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("load scenario: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), SourceExt)
	return Scenario{Name: name, Path: path, Text: text}, nil
}

// LoadDir discovers every *.glyph file under dir, sorted by name so the
// ledger sees scenarios in a stable order. An empty or missing directory
// yields an empty slice.
func LoadDir(fs fsx.FS, dir string) ([]Scenario, error) {
	matches, err := fs.List(dir, SourceExt)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	scenarios := make([]Scenario, 0, len(matches))
	for _, path := range matches {
		sc, err := Load(fs, path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// ByName indexes scenarios by name.
func ByName(scenarios []Scenario) map[string]Scenario {
	out := make(map[string]Scenario, len(scenarios))
	for _, sc := range scenarios {
		out[sc.Name] = sc
	}
	return out
}

// OtherTexts returns "name: text" blocks for every scenario except name,
// in input order. The builder feeds these to the model for cross-reference.
func OtherTexts(scenarios []Scenario, name string) []string {
	out := make([]string, 0, len(scenarios))
	for _, sc := range scenarios {
		if sc.Name == name {
			continue
		}
		out = append(out, fmt.Sprintf("%s:\n%s", sc.Name, sc.Text))
	}
	return out
}
