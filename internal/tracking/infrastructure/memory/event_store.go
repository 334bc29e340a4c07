package memory

import (
	"context"
	"fmt"
	"sync"

	tracking "fastrack/internal/tracking/domain"
)

// EventStore is an in-memory event store for demo/testing.
type EventStore struct {
	mu     sync.RWMutex
	sheets map[string]tracking.Table
	err    error
}

// NewEventStore constructs a store holding the given sheets.
func NewEventStore(sheets ...tracking.Table) *EventStore {
	s := &EventStore{sheets: make(map[string]tracking.Table, len(sheets))}
	for _, sheet := range sheets {
		s.Put(sheet)
	}
	return s
}

// Put replaces a sheet by name.
func (s *EventStore) Put(sheet tracking.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet.Name] = copyTable(sheet)
}

// Fail makes every subsequent load return err; nil clears it.
func (s *EventStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Load returns a copy of the named sheet.
func (s *EventStore) Load(ctx context.Context, sheet string) (tracking.Table, error) {
	if err := ctx.Err(); err != nil {
		return tracking.Table{}, fmt.Errorf("memory event store: %w: %w", tracking.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return tracking.Table{}, fmt.Errorf("memory event store: %w: %w", tracking.ErrStoreUnavailable, s.err)
	}
	table, ok := s.sheets[sheet]
	if !ok {
		return tracking.Table{}, fmt.Errorf("memory event store: %w: sheet %s not found", tracking.ErrStoreUnavailable, sheet)
	}
	return copyTable(table), nil
}

func copyTable(t tracking.Table) tracking.Table {
	out := tracking.Table{Name: t.Name, Header: append([]string(nil), t.Header...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}
