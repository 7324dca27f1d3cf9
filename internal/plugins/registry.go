package plugins

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// FilePrefix is the naming convention for handler executables.
const FilePrefix = "docClassHandler_"

// ErrNoHandler is returned by Dispatch when no handler is registered for a
// class.
var ErrNoHandler = errors.New("no handler registered")

// Handler post-processes a stored document row.
type Handler interface {
	HandleDocument(ctx context.Context, row map[string]any) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, row map[string]any) error

// HandleDocument calls f.
func (f HandlerFunc) HandleDocument(ctx context.Context, row map[string]any) error {
	return f(ctx, row)
}

// RowLoader fetches the stored document row handed to a handler.
type RowLoader func(ctx context.Context) (map[string]any, error)

var unclassifiedMarkers = func() map[string]struct{} {
	fold := cases.Fold()
	set := map[string]struct{}{}
	for _, marker := range []string{"", "unclassified", "unknown", "none", "null", "不明", "判定不能"} {
		set[fold.String(marker)] = struct{}{}
	}
	return set
}()

// IsUnclassified reports whether classID is one of the sentinels meaning no
// class, compared case-insensitively after trimming.
func IsUnclassified(classID string) bool {
	_, ok := unclassifiedMarkers[cases.Fold().String(strings.TrimSpace(classID))]
	return ok
}

// Registry maps class ids to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register associates h with classID, replacing any previous handler.
func (r *Registry) Register(classID string, h Handler) {
	classID = strings.TrimSpace(classID)
	if classID == "" || h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[classID] = h
}

// Lookup returns the handler for classID.
func (r *Registry) Lookup(classID string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[strings.TrimSpace(classID)]
	return h, ok
}

// Classes lists the registered class ids in sorted order.
func (r *Registry) Classes() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch invokes the handler for classID with the row produced by load.
// Sentinel classes return nil without loading; a class without a handler
// returns ErrNoHandler.
func (r *Registry) Dispatch(ctx context.Context, classID string, load RowLoader) error {
	if IsUnclassified(classID) {
		return nil
	}
	h, ok := r.Lookup(classID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, strings.TrimSpace(classID))
	}
	row, err := load(ctx)
	if err != nil {
		return fmt.Errorf("load document row: %w", err)
	}
	if err := h.HandleDocument(ctx, row); err != nil {
		return fmt.Errorf("handler %s: %w", strings.TrimSpace(classID), err)
	}
	return nil
}
