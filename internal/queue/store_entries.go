package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Enqueue inserts sourcePath or resets an existing entry for it. An existing
// row keeps its id; its retry counter is set to retry and its failure marker
// cleared.
func (s *Store) Enqueue(ctx context.Context, sourcePath string, retry int) (int64, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return 0, errors.New("enqueue: source path is required")
	}
	if retry < 0 {
		retry = 0
	}
	ctx = ensureContext(ctx)

	var id int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowxContext(ctx, `INSERT INTO Queue (SourcePath, Retry, LastFailure)
			VALUES (?, ?, NULL)
			ON CONFLICT(SourcePath) DO UPDATE SET Retry = excluded.Retry, LastFailure = NULL
			RETURNING EntryID`, sourcePath, retry).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", sourcePath, err)
	}
	return id, nil
}

// ClaimNextReady returns the lowest-id entry without a failure marker. The row
// stays in place until Ack, Fail or CommitDocument. It returns nil when
// nothing is ready.
func (s *Store) ClaimNextReady(ctx context.Context) (*Entry, error) {
	ctx = ensureContext(ctx)
	var row entryRow
	err := retryOnBusy(ctx, func() error {
		return s.db.GetContext(ctx, &row,
			`SELECT `+entryColumns+` FROM Queue WHERE LastFailure IS NULL ORDER BY EntryID LIMIT 1`)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next ready: %w", err)
	}
	entry := row.toEntry()
	return &entry, nil
}

// Ack removes an entry.
func (s *Store) Ack(ctx context.Context, entryID int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM Queue WHERE EntryID = ?`, entryID); err != nil {
		return fmt.Errorf("ack entry %d: %w", entryID, err)
	}
	return nil
}

// Fail stamps the failure marker with the current time. The retry counter is
// left unchanged.
func (s *Store) Fail(ctx context.Context, entryID int64) error {
	if _, err := s.execWithRetry(ctx, `UPDATE Queue SET LastFailure = ? WHERE EntryID = ?`,
		formatTime(s.now()), entryID); err != nil {
		return fmt.Errorf("fail entry %d: %w", entryID, err)
	}
	return nil
}

// Sweep advances failed entries whose failure marker is at least cooldown
// old. Entries whose advanced retry counter exceeds ceiling are reported as
// SweepTerminal without modification. Others are returned to the ready
// state; the update only applies while the row still carries the failure
// marker that was read, so a concurrent re-enqueue wins.
func (s *Store) Sweep(ctx context.Context, cooldown time.Duration, ceiling int) ([]SweepResult, error) {
	ctx = ensureContext(ctx)
	cutoff := formatTime(s.now().Add(-cooldown))

	var rows []entryRow
	if err := retryOnBusy(ctx, func() error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows,
			`SELECT `+entryColumns+` FROM Queue
			 WHERE LastFailure IS NOT NULL AND LastFailure <= ?
			 ORDER BY EntryID`, cutoff)
	}); err != nil {
		return nil, fmt.Errorf("sweep select: %w", err)
	}

	results := make([]SweepResult, 0, len(rows))
	for _, row := range rows {
		entry := row.toEntry()
		next := row.Retry + 1
		if next > ceiling {
			results = append(results, SweepResult{Entry: entry, Kind: SweepTerminal, Retry: next})
			continue
		}
		res, err := s.execWithRetry(ctx,
			`UPDATE Queue SET Retry = ?, LastFailure = NULL WHERE EntryID = ? AND LastFailure = ?`,
			next, row.ID, deref(row.LastFailure))
		if err != nil {
			return results, fmt.Errorf("sweep requeue entry %d: %w", row.ID, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			continue
		}
		entry.Retry = next
		entry.LastFailure = nil
		results = append(results, SweepResult{Entry: entry, Kind: SweepRequeued, Retry: next})
	}
	return results, nil
}

// Get returns the entry with the given id, or nil.
func (s *Store) Get(ctx context.Context, entryID int64) (*Entry, error) {
	ctx = ensureContext(ctx)
	var row entryRow
	err := s.db.GetContext(ctx, &row, `SELECT `+entryColumns+` FROM Queue WHERE EntryID = ?`, entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", entryID, err)
	}
	entry := row.toEntry()
	return &entry, nil
}

// GetBySourcePath returns the entry for sourcePath, or nil.
func (s *Store) GetBySourcePath(ctx context.Context, sourcePath string) (*Entry, error) {
	ctx = ensureContext(ctx)
	var row entryRow
	err := s.db.GetContext(ctx, &row, `SELECT `+entryColumns+` FROM Queue WHERE SourcePath = ?`, sourcePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", sourcePath, err)
	}
	entry := row.toEntry()
	return &entry, nil
}

// List returns every entry ordered by id.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+entryColumns+` FROM Queue ORDER BY EntryID`); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}

// Clear removes every queue entry and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM Queue`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
