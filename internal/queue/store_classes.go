package queue

import (
	"context"
	"fmt"
)

// EnabledClassPrompts returns enabled classes ordered by priority then id.
func (s *Store) EnabledClassPrompts(ctx context.Context) ([]DocumentClass, error) {
	ctx = ensureContext(ctx)
	var classes []DocumentClass
	if err := s.db.SelectContext(ctx, &classes, `SELECT DocumentClassID, Name, Priority, Enabled, Prompt
		FROM DocumentClasses WHERE Enabled = 1 ORDER BY Priority, DocumentClassID`); err != nil {
		return nil, fmt.Errorf("enabled classes: %w", err)
	}
	return classes, nil
}

// ListClasses returns every class ordered by priority then id.
func (s *Store) ListClasses(ctx context.Context) ([]DocumentClass, error) {
	ctx = ensureContext(ctx)
	var classes []DocumentClass
	if err := s.db.SelectContext(ctx, &classes, `SELECT DocumentClassID, Name, Priority, Enabled, Prompt
		FROM DocumentClasses ORDER BY Priority, DocumentClassID`); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// UpsertClass creates or replaces a class definition.
func (s *Store) UpsertClass(ctx context.Context, class DocumentClass) error {
	if class.ID == "" {
		return fmt.Errorf("upsert class: id is required")
	}
	if class.Name == "" {
		class.Name = class.ID
	}
	_, err := s.db.NamedExecContext(ensureContext(ctx), `INSERT INTO DocumentClasses (DocumentClassID, Name, Priority, Enabled, Prompt)
		VALUES (:DocumentClassID, :Name, :Priority, :Enabled, :Prompt)
		ON CONFLICT(DocumentClassID) DO UPDATE SET
			Name = excluded.Name, Priority = excluded.Priority,
			Enabled = excluded.Enabled, Prompt = excluded.Prompt`, class)
	if err != nil {
		return fmt.Errorf("upsert class %s: %w", class.ID, err)
	}
	return nil
}
