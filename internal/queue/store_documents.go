package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrDocumentNotFound is returned when a document id has no row.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrEntryChanged is returned when a queue entry was re-enqueued or
	// removed after it was read.
	ErrEntryChanged = errors.New("queue entry changed")
)

// CommitDocument stores doc and removes the queue entry in one transaction,
// so a crash can never leave both the outcome and its pending entry behind.
// A class referenced by doc that does not exist yet is created first. Missing
// ids and creation times are filled in and the stored document is returned.
// When the entry is already gone, another consumer owns its outcome: nothing
// is written and ErrEntryChanged is returned.
func (s *Store) CommitDocument(ctx context.Context, entryID int64, doc Document) (Document, error) {
	doc = s.prepareDocument(doc)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM Queue WHERE EntryID = ?`, entryID)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrEntryChanged
		}
		return insertDocumentTx(ctx, tx, doc)
	})
	if err != nil {
		return Document{}, fmt.Errorf("commit document for entry %d: %w", entryID, err)
	}
	return doc, nil
}

// CommitTerminal stores the terminal document for an entry the sweep
// reported as SweepTerminal. The entry is removed only while it still
// carries the failure marker the sweep observed; when a concurrent
// re-enqueue reset it, nothing is written and ErrEntryChanged is returned.
func (s *Store) CommitTerminal(ctx context.Context, entry Entry, doc Document) (Document, error) {
	if entry.LastFailure == nil {
		return Document{}, fmt.Errorf("commit terminal for entry %d: %w", entry.ID, ErrEntryChanged)
	}
	doc = s.prepareDocument(doc)
	marker := formatTime(*entry.LastFailure)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM Queue WHERE EntryID = ? AND LastFailure = ?`, entry.ID, marker)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrEntryChanged
		}
		return insertDocumentTx(ctx, tx, doc)
	})
	if err != nil {
		return Document{}, fmt.Errorf("commit terminal for entry %d: %w", entry.ID, err)
	}
	return doc, nil
}

func (s *Store) prepareDocument(doc Document) Document {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.DateCreated.IsZero() {
		doc.DateCreated = s.now()
	}
	if len(doc.Data) == 0 {
		doc.Data = json.RawMessage("{}")
	}
	doc.ClassID = strings.TrimSpace(doc.ClassID)
	return doc
}

func insertDocumentTx(ctx context.Context, tx *sqlx.Tx, doc Document) error {
	if doc.ClassID != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO DocumentClasses (DocumentClassID, Name, Prompt) VALUES (?, ?, '')`,
			doc.ClassID, doc.ClassID); err != nil {
			return fmt.Errorf("ensure class %s: %w", doc.ClassID, err)
		}
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO Documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		true,
		doc.SourcePath,
		formatTime(doc.DateCreated),
		nullableTime(doc.DateReceived),
		nullableString(doc.Title),
		nullableString(doc.Sender),
		nullableString(doc.SenderOrganization),
		nullableString(doc.Recipient),
		nullableString(doc.RecipientOrganization),
		nullableString(doc.ClassID),
		string(doc.Data),
	)
	return err
}

// GetDocument returns the typed document with the given id.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	ctx = ensureContext(ctx)
	var row documentRow
	err := s.db.GetContext(ctx, &row, `SELECT `+documentColumns+` FROM Documents WHERE ID = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	doc := row.toDocument()
	return &doc, nil
}

// GetDocumentRow returns the stored row as column name to value, the shape
// handed to post-processing handlers.
func (s *Store) GetDocumentRow(ctx context.Context, id string) (map[string]any, error) {
	ctx = ensureContext(ctx)
	row := make(map[string]any)
	err := s.db.QueryRowxContext(ctx, `SELECT `+documentColumns+` FROM Documents WHERE ID = ?`, id).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document row %s: %w", id, err)
	}
	for key, value := range row {
		if b, ok := value.([]byte); ok {
			row[key] = string(b)
		}
	}
	return row, nil
}

// ListDocuments returns the most recent documents first. A non-positive limit
// returns every row.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + documentColumns + ` FROM Documents ORDER BY DateCreated DESC, ID`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.toDocument())
	}
	return docs, nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM Documents`); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}
