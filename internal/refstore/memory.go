package refstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation suitable for tests and
// single-instance deployments. Records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record // reference -> record
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Save inserts or replaces a record keyed by reference.
func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	if err := validateRecord(&rec); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.records[rec.Reference]; ok {
		rec.CreatedAt = existing.CreatedAt
	}
	m.records[rec.Reference] = rec
	return nil
}

// Get retrieves a record by reference.
func (m *MemoryStore) Get(_ context.Context, reference string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[reference]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// UpdateStatus transitions a record's status and message.
func (m *MemoryStore) UpdateStatus(_ context.Context, reference, status, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[reference]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.Message = message
	rec.UpdatedAt = time.Now().UTC()
	m.records[reference] = rec
	return nil
}

// List returns records ordered newest first, up to limit (0 = all).
func (m *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Driver returns the backing driver name.
func (m *MemoryStore) Driver() string { return "memory" }

// Close implements the Store interface.
func (m *MemoryStore) Close() error { return nil }
