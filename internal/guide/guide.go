// Package guide caches per-scenario build results. A guide records the
// actions a built scenario performs together with the hash of the scenario
// source that produced it; the hash is the only staleness signal, so touching
// a file without changing it never forces a rebuild.
package guide

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/glyphtool/glyph/internal/fsx"
)

// Ext is the guide file extension under .glyph/guides.
const Ext = ".guide"

// Guide is the cached build result for one scenario.
type Guide struct {
	ScenarioName string    `json:"scenario_name"`
	Actions      []string  `json:"actions"`
	GlyphHash    string    `json:"glyph_hash"`
	BuiltAt      time.Time `json:"built_at"`
	Dependencies []string  `json:"dependencies"`
}

// HashText returns the hex SHA-256 of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashFile hashes the content of the file at path.
func HashFile(fs fsx.FS, path string) (string, error) {
	text, err := fs.ReadText(path)
	if err != nil {
		return "", err
	}
	return HashText(text), nil
}
