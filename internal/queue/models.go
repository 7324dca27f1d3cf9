package queue

import (
	"encoding/json"
	"time"
)

// Entry is one unit of pending work keyed by its source path. A nil
// LastFailure means the entry is ready to be claimed.
type Entry struct {
	ID          int64
	Retry       int
	LastFailure *time.Time
	SourcePath  string
}

// Ready reports whether the entry can be claimed by the drain loop.
func (e *Entry) Ready() bool {
	return e != nil && e.LastFailure == nil
}

// SweepKind is the outcome of a sweep for one failed entry.
type SweepKind string

const (
	// SweepRequeued means the entry was returned to the ready state with its
	// retry counter advanced.
	SweepRequeued SweepKind = "requeued"
	// SweepTerminal means the advanced retry counter exceeds the ceiling; the
	// row is left untouched for the caller to terminalize.
	SweepTerminal SweepKind = "terminal"
)

// SweepResult reports what Sweep did with a failed entry. Retry holds the
// advanced counter.
type SweepResult struct {
	Entry Entry
	Kind  SweepKind
	Retry int
}

// Stats summarises the queue.
type Stats struct {
	Ready  int `json:"ready"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Document is an immutable classification outcome.
type Document struct {
	ID                    string
	Active                bool
	SourcePath            string
	DateCreated           time.Time
	DateReceived          time.Time
	Title                 string
	Sender                string
	SenderOrganization    string
	Recipient             string
	RecipientOrganization string
	// ClassID is empty for unclassified and terminal documents; it is stored
	// as NULL.
	ClassID string
	// Data is persisted verbatim.
	Data json.RawMessage
}

// DocumentClass is one taxonomy entry used to build the classifier prompt.
type DocumentClass struct {
	ID       string `db:"DocumentClassID"`
	Name     string `db:"Name"`
	Priority int    `db:"Priority"`
	Enabled  bool   `db:"Enabled"`
	Prompt   string `db:"Prompt"`
}

// DatabaseHealth describes database readiness for diagnostics.
type DatabaseHealth struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	SchemaVersion    int64  `json:"schema_version"`
	IntegrityCheck   string `json:"integrity_check"`
	Error            string `json:"error,omitempty"`
}

type entryRow struct {
	ID          int64   `db:"EntryID"`
	Retry       int     `db:"Retry"`
	LastFailure *string `db:"LastFailure"`
	SourcePath  string  `db:"SourcePath"`
}

func (r entryRow) toEntry() Entry {
	entry := Entry{ID: r.ID, Retry: r.Retry, SourcePath: r.SourcePath}
	if r.LastFailure != nil {
		if ts, ok := parseTimeString(*r.LastFailure); ok {
			entry.LastFailure = &ts
		}
	}
	return entry
}

type documentRow struct {
	ID                    string  `db:"ID"`
	Active                bool    `db:"Active"`
	SourcePath            string  `db:"SourcePath"`
	DateCreated           string  `db:"DateCreated"`
	DateReceived          *string `db:"DateReceived"`
	Title                 *string `db:"Title"`
	Sender                *string `db:"Sender"`
	SenderOrganization    *string `db:"SenderOrganization"`
	Recipient             *string `db:"Recipient"`
	RecipientOrganization *string `db:"RecipientOrganization"`
	ClassID               *string `db:"DocumentClassID"`
	Data                  string  `db:"DocumentData"`
}

func (r documentRow) toDocument() Document {
	doc := Document{
		ID:                    r.ID,
		Active:                r.Active,
		SourcePath:            r.SourcePath,
		Title:                 deref(r.Title),
		Sender:                deref(r.Sender),
		SenderOrganization:    deref(r.SenderOrganization),
		Recipient:             deref(r.Recipient),
		RecipientOrganization: deref(r.RecipientOrganization),
		ClassID:               deref(r.ClassID),
		Data:                  json.RawMessage(r.Data),
	}
	if ts, ok := parseTimeString(r.DateCreated); ok {
		doc.DateCreated = ts
	}
	if r.DateReceived != nil {
		if ts, ok := parseTimeString(*r.DateReceived); ok {
			doc.DateReceived = ts
		}
	}
	return doc
}
