package queue

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrSchemaMismatch indicates the database was migrated by a newer build.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func (s *Store) migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	current, err := goose.GetDBVersionContext(ctx, s.db.DB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	latest, err := latestMigrationVersion()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("%w: database at %d, binary supports %d", ErrSchemaMismatch, current, latest)
	}

	if err := goose.UpContext(ctx, s.db.DB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func latestMigrationVersion() (int64, error) {
	migrations, err := goose.CollectMigrations("migrations", 0, goose.MaxVersion)
	if err != nil {
		return 0, fmt.Errorf("collect migrations: %w", err)
	}
	last, err := migrations.Last()
	if err != nil {
		return 0, fmt.Errorf("latest migration: %w", err)
	}
	return last.Version, nil
}

// SchemaVersion reports the applied goose migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, s.db.DB)
}
