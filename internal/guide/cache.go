package guide

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/glyphtool/glyph/internal/fsx"
)

// Cache stores guides under <glyphDir>/guides and decides when a scenario
// must be rebuilt.
type Cache struct {
	fs       fsx.FS
	glyphDir string
}

// NewCache returns a cache rooted at glyphDir (normally ".glyph").
func NewCache(fs fsx.FS, glyphDir string) *Cache {
	return &Cache{fs: fs, glyphDir: glyphDir}
}

// GuidesDir returns the directory holding guide files.
func (c *Cache) GuidesDir() string {
	return filepath.Join(c.glyphDir, "guides")
}

func (c *Cache) guidePath(name string) string {
	return filepath.Join(c.GuidesDir(), name+Ext)
}

// ShouldRebuild reports whether the scenario at sourcePath needs a rebuild.
// Any unreadable state answers yes; a stale answer here would leave a changed
// scenario with an outdated script.
func (c *Cache) ShouldRebuild(name, sourcePath string, force bool) bool {
	if force {
		log.Info().Str("scenario", name).Msg("force rebuild requested")
		return true
	}

	stored, err := c.Load(name)
	if err != nil {
		if c.fs.Exists(c.guidePath(name)) {
			log.Warn().Str("scenario", name).Err(err).Msg("guide unreadable, rebuilding")
		} else {
			log.Info().Str("scenario", name).Msg("no guide found, building")
		}
		return true
	}

	current, err := HashFile(c.fs, sourcePath)
	if err != nil {
		log.Warn().Str("scenario", name).Err(err).Msg("source hash failed, rebuilding")
		return true
	}

	if current != stored.GlyphHash {
		log.Info().Str("scenario", name).Msg("scenario source changed")
		log.Debug().
			Str("old_hash", short(stored.GlyphHash)).
			Str("new_hash", short(current)).
			Msg("hash mismatch")
		return true
	}

	log.Info().Str("scenario", name).Msg("guide up to date")
	return false
}

// Save writes the guide for g.ScenarioName.
func (c *Cache) Save(g Guide) error {
	if g.Dependencies == nil {
		g.Dependencies = []string{}
	}
	if g.Actions == nil {
		g.Actions = []string{}
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal guide %s: %w", g.ScenarioName, err)
	}
	if err := c.fs.WriteText(c.guidePath(g.ScenarioName), string(data)); err != nil {
		return fmt.Errorf("save guide %s: %w", g.ScenarioName, err)
	}
	return nil
}

// Load reads the guide for name.
func (c *Cache) Load(name string) (Guide, error) {
	text, err := c.fs.ReadText(c.guidePath(name))
	if err != nil {
		return Guide{}, fmt.Errorf("load guide %s: %w", name, err)
	}
	var g Guide
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return Guide{}, fmt.Errorf("parse guide %s: %w", name, err)
	}
	return g, nil
}

// Purge deletes every guide and resets the knowledge catalog so the next
// build starts from a blank slate.
func (c *Cache) Purge() error {
	log.Info().Msg("purging cached knowledge")

	guides, err := c.fs.List(c.GuidesDir(), Ext)
	if err != nil {
		return fmt.Errorf("list guides: %w", err)
	}
	for _, path := range guides {
		if err := c.fs.Remove(path); err != nil {
			return err
		}
		log.Debug().Str("guide", path).Msg("removed guide")
	}

	if err := ResetCatalog(c.fs, c.glyphDir); err != nil {
		return err
	}

	log.Info().Int("guides_removed", len(guides)).Msg("purge completed")
	return nil
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
