package testutil

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/liturgia/internal/program"
)

// MemoryGateway is an in-memory StepGateway. Inserted rows get ids from the
// generator passed to NewMemoryGateway.
type MemoryGateway struct {
	mu     sync.Mutex
	rows   map[string]program.Row
	nextID func() string
}

// NewMemoryGateway returns an empty gateway. A nil nextID uses
// SequentialIDs("step").
func NewMemoryGateway(nextID func() string) *MemoryGateway {
	if nextID == nil {
		nextID = SequentialIDs("step")
	}
	return &MemoryGateway{rows: make(map[string]program.Row), nextID: nextID}
}

// Seed stores rows as-is. Every row must carry an id.
func (m *MemoryGateway) Seed(rows ...program.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows[r.ID] = r
	}
}

// ListSteps returns the rows of a liturgy by step_order, then id.
func (m *MemoryGateway) ListSteps(_ context.Context, liturgyID string) ([]program.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []program.Row
	for _, r := range m.rows {
		if r.LiturgyID == liturgyID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b program.Row) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// BulkDelete removes rows by id. Unknown ids are ignored.
func (m *MemoryGateway) BulkDelete(_ context.Context, ids []program.StepID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.rows, string(id))
	}
	return nil
}

// BulkUpsert inserts rows without an id and replaces the rest.
func (m *MemoryGateway) BulkUpsert(_ context.Context, rows []program.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		if r.LiturgyID == "" {
			return fmt.Errorf("upsert row %q: liturgy id is required", r.ID)
		}
		if r.IsInsert() {
			r.ID = m.nextID()
		}
		m.rows[r.ID] = r
	}
	return nil
}

// Len returns the number of stored rows.
func (m *MemoryGateway) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
