package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/charmlog"
	"github.com/benjamonnguyen/daybook/sqlite"
)

// Logger writes to the configured log file, or stderr when none is set. The
// returned closer releases the file.
func Logger(cfg daybook.Config) (daybook.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(cfg.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	return charmlog.NewLogger(charmlog.Options{
		Writer: w,
		Level:  cfg.LogLevel,
		Prefix: "daybookd",
	}), closer, nil
}

// OpenDB opens the database and applies pending migrations.
func OpenDB(cfg daybook.Config) (*sqlite.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabaseURL), 0o755); err != nil {
		return nil, err
	}
	db, err := sqlite.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(sqlite.Migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
