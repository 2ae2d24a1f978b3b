// Package sqlite implements daybook's Database and TaskRepo on SQLite.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/benjamonnguyen/daybook"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var Migrations embed.FS

type DB struct {
	conn *sql.DB
}

var _ daybook.Database = (*DB)(nil)

// Open opens the database at url. A single connection is used so writes from
// request handlers and the sweeper are serialized.
func Open(url string) (*DB, error) {
	conn, err := sql.Open("sqlite", url)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &DB{
		conn: conn,
	}, nil
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Migrate(migrations fs.FS) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	d, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", d)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}
