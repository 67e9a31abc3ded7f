package main

import (
	"database/sql"
	"os"

	"github.com/glyphtool/glyph/internal/history"
	"github.com/glyphtool/glyph/internal/sandbox"
)

func openHistory() (*sql.DB, func(), error) {
	if err := os.MkdirAll(sandbox.DefaultDir, 0o755); err != nil {
		return nil, func() {}, err
	}
	db, err := history.Open(history.PathIn(sandbox.DefaultDir))
	if err != nil {
		return nil, func() {}, err
	}
	return db, func() { _ = db.Close() }, nil
}
