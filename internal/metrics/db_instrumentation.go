package metrics

import (
	"time"
)

// MeasureStoreOp wraps a payment record store operation with timing
// instrumentation. Usage:
//
//	defer metrics.MeasureStoreOp(m, "save", "postgres")()
func MeasureStoreOp(m *Metrics, operation, driver string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.ObserveStoreOp(operation, driver, time.Since(start))
	}
}

// RecordStoreOp records a store operation duration directly (when timing is already captured).
func RecordStoreOp(m *Metrics, operation, driver string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ObserveStoreOp(operation, driver, duration)
}
