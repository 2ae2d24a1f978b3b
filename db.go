package daybook

import "io/fs"

type Database interface {
	Close() error
	// Migrate applies every pending up migration found in migrations.
	Migrate(migrations fs.FS) error
}
