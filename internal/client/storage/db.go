// Package storage opens the local SQLite database that holds the durable
// session record and brings its schema up to date.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/iskr/internal/client/migrations"
	"github.com/dmitrijs2005/iskr/internal/filex"
)

// RunMigrations applies all pending embedded migrations. Running it on an
// up-to-date database is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(database.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// InitDatabase opens (creating if needed) the SQLite file at dsn and runs
// migrations. A plain file path may start with "~/"; its directory is
// created when missing. "file:" URIs and ":memory:" are passed through.
//
// The pool holds a single connection; SQLite serialises writers and one
// connection keeps the record's reads and writes from hitting SQLITE_BUSY.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		path, err := filex.ExpandHome(dsn)
		if err != nil {
			return nil, err
		}
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("prepare database dir: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
