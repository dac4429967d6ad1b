// Package store wires the local SQLite database: it opens the file, applies
// the embedded migrations, and hands out the per-table repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/blobs"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/outbox"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/reference"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/sites"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/syncstate"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/tickets"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/visits"
	"github.com/sitetrackr/fieldsync/internal/client/store/migrations"
	"github.com/sitetrackr/fieldsync/internal/dbx"

	_ "modernc.org/sqlite"
)

// Repositories bundles all repositories bound to one DBTX.
type Repositories struct {
	Outbox    outbox.Repository
	Tickets   tickets.Repository
	Visits    visits.Repository
	Sites     sites.Repository
	Reference reference.Repository
	Blobs     blobs.Repository
	SyncState syncstate.Repository
}

// NewRepositories binds the full repository set to db, which may be a
// *sql.DB for standalone reads or a transaction handle inside dbx.WithTx.
func NewRepositories(db dbx.DBTX) *Repositories {
	return &Repositories{
		Outbox:    outbox.NewSQLiteRepository(db),
		Tickets:   tickets.NewSQLiteRepository(db),
		Visits:    visits.NewSQLiteRepository(db),
		Sites:     sites.NewSQLiteRepository(db),
		Reference: reference.NewSQLiteRepository(db),
		Blobs:     blobs.NewSQLiteRepository(db),
		SyncState: syncstate.NewSQLiteRepository(db),
	}
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local database at dsn and applies
// migrations. The returned *sql.DB is the shared handle for the process.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
