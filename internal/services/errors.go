package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnstable      = errors.New("file not stable")
	ErrClassifier    = errors.New("classifier error")
	ErrPersistence   = errors.New("persistence error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrUnsupported   = errors.New("unsupported file type")
	ErrTransient     = errors.New("transient failure")
)

// Disposition is what the coordinator does with a queue entry after a
// processing error.
type Disposition int

const (
	// DispositionRetry marks the entry failed so the sweep can promote it later.
	DispositionRetry Disposition = iota
	// DispositionDrop acknowledges the entry without writing a document.
	DispositionDrop
)

func (d Disposition) String() string {
	switch d {
	case DispositionDrop:
		return "drop"
	default:
		return "retry"
	}
}

// Wrap builds an error message that includes step context while tagging it
// with the provided marker for later disposition. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// DispositionFor maps a processing error to the queue action. Vanished files
// and unsupported types are dropped; everything else is retried.
func DispositionFor(err error) Disposition {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnsupported):
		return DispositionDrop
	default:
		return DispositionRetry
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "processing failure"
	}
	return strings.Join(parts, ": ")
}
