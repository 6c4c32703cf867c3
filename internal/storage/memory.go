package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/floatband/bandscan/internal/models"
)

// MemoryStore is an in-memory RunStore. It backs tests and runs without
// a database configured.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// SaveRun stores a copy of the run
func (m *MemoryStore) SaveRun(_ context.Context, run *Run) error {
	if err := ValidateRunID(run.ID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = copyRun(run)
	return nil
}

// GetRun returns a copy of the stored run
func (m *MemoryStore) GetRun(_ context.Context, id string) (*Run, error) {
	if err := ValidateRunID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, models.ErrRunNotFound
	}
	return copyRun(run), nil
}

// ListRuns returns the most recent runs, newest first, without trades
func (m *MemoryStore) ListRuns(_ context.Context, symbol string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		if symbol != "" && run.Symbol != symbol {
			continue
		}
		listed := copyRun(run)
		listed.Trades = nil
		runs = append(runs, listed)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

func copyRun(run *Run) *Run {
	out := *run
	if run.Trades != nil {
		out.Trades = make([]models.Trade, len(run.Trades))
		copy(out.Trades, run.Trades)
	}
	return &out
}
