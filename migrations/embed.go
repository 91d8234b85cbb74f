// Package migrations embeds the SQL schema for each supported database.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// SQLite returns the SQLite migration files.
func SQLite() fs.FS {
	return sub("sqlite")
}

// Postgres returns the PostgreSQL migration files.
func Postgres() fs.FS {
	return sub("postgres")
}

func sub(dir string) fs.FS {
	out, err := fs.Sub(FS, dir)
	if err != nil {
		// fs.Sub only fails on an invalid path, and dir is a constant.
		panic(err)
	}
	return out
}
