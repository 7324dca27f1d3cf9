package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// Stats returns counts of ready and failed entries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats
	err := s.db.QueryRowxContext(ctx, `SELECT
			COALESCE(SUM(CASE WHEN LastFailure IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN LastFailure IS NOT NULL THEN 1 ELSE 0 END), 0),
			COUNT(1)
		FROM Queue`).Scan(&stats.Ready, &stats.Failed, &stats.Total)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	version, err := s.SchemaVersion(connCtx)
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("schema version: %w", err)
	}
	health.SchemaVersion = version

	if err := s.db.GetContext(connCtx, &health.IntegrityCheck, "PRAGMA integrity_check"); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	if health.IntegrityCheck != "ok" {
		health.Error = health.IntegrityCheck
	}
	return health, nil
}
