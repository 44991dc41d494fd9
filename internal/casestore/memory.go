package casestore

import (
	"context"
	"sort"
	"sync"

	"github.com/copperline/triage/internal/model"
)

// Memory is a mutex-guarded in-process store. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	cases map[string]model.CaseContext
	order []string // insertion order, used to break reported-at ties
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cases: map[string]model.CaseContext{}}
}

func (m *Memory) Get(_ context.Context, id string) (model.CaseContext, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cases[id]
	return c, ok, nil
}

func (m *Memory) Put(_ context.Context, c model.CaseContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cases[c.ID]; !exists {
		m.order = append(m.order, c.ID)
	}
	m.cases[c.ID] = c
	return nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]model.CaseContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.CaseContext, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.cases[m.order[i]])
	}
	// Newest first; zero timestamps sort by reverse insertion order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReportedAt.After(out[j].ReportedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
