package refstore

import (
	"context"

	"github.com/paywith/paywith/internal/metrics"
)

// InstrumentedStore decorates a Store with operation timing metrics, so
// every driver reports store latency without carrying its own metrics
// dependency.
type InstrumentedStore struct {
	inner Store
	m     *metrics.Metrics
}

// NewInstrumentedStore wraps a store with metrics instrumentation. A nil
// metrics collector disables recording but keeps the wrapper usable.
func NewInstrumentedStore(inner Store, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, m: m}
}

// Save inserts or replaces a record keyed by reference.
func (s *InstrumentedStore) Save(ctx context.Context, rec Record) error {
	defer metrics.MeasureStoreOp(s.m, "save", s.inner.Driver())()
	return s.inner.Save(ctx, rec)
}

// Get retrieves a record by reference.
func (s *InstrumentedStore) Get(ctx context.Context, reference string) (Record, error) {
	defer metrics.MeasureStoreOp(s.m, "get", s.inner.Driver())()
	return s.inner.Get(ctx, reference)
}

// UpdateStatus transitions a record's status and message.
func (s *InstrumentedStore) UpdateStatus(ctx context.Context, reference, status, message string) error {
	defer metrics.MeasureStoreOp(s.m, "update_status", s.inner.Driver())()
	return s.inner.UpdateStatus(ctx, reference, status, message)
}

// List returns records ordered newest first, up to limit (0 = all).
func (s *InstrumentedStore) List(ctx context.Context, limit int) ([]Record, error) {
	defer metrics.MeasureStoreOp(s.m, "list", s.inner.Driver())()
	return s.inner.List(ctx, limit)
}

// Driver returns the wrapped store's driver name.
func (s *InstrumentedStore) Driver() string { return s.inner.Driver() }

// Close closes the wrapped store.
func (s *InstrumentedStore) Close() error { return s.inner.Close() }
