package ledger

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/glyphtool/glyph/internal/fsx"
)

// Filename is the ledger file under the glyph directory.
const Filename = "build_progress.json"

// PathIn returns the ledger path under glyphDir.
func PathIn(glyphDir string) string {
	return filepath.Join(glyphDir, Filename)
}

// Load reads the ledger at path. A missing file yields an empty ledger; a
// file without a version key is a legacy ledger and is upgraded in memory,
// then rewritten at the current version on the next save.
func Load(fs fsx.FS, path string) (*BuildProgress, error) {
	if !fs.Exists(path) {
		return New(), nil
	}

	text, err := fs.ReadText(path)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	var p BuildProgress
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	if p.Scenarios == nil {
		p.Scenarios = make(map[string]*ScenarioProgress)
	}
	if p.Version == 0 {
		log.Debug().Str("path", path).Msg("legacy ledger upgraded")
		p.Version = CurrentVersion
	}
	p.normalize()
	p.repair()
	return &p, nil
}

// Save overwrites the ledger at path in one write.
func (p *BuildProgress) Save(fs fsx.FS, path string) error {
	p.Version = CurrentVersion
	p.normalize()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := fs.WriteText(path, string(data)); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// normalize replaces nil slices so a round trip never turns empty lists into
// nulls that older readers choke on.
func (p *BuildProgress) normalize() {
	for _, sp := range p.Scenarios {
		if sp.Dependencies == nil {
			sp.Dependencies = []string{}
		}
		if sp.References == nil {
			sp.References = []string{}
		}
		if sp.CompletedSteps == nil {
			sp.CompletedSteps = []int{}
		}
		if sp.StepList == nil {
			sp.StepList = []string{}
		}
	}
}
