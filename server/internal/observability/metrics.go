package observability

import (
	"sync/atomic"
	"time"
)

// Metrics aggregates completion-call counters for the process. Counters only;
// anything fancier belongs in an external system.
type Metrics struct {
	requestTotal    atomic.Int64
	requestFailed   atomic.Int64
	totalDurationMs atomic.Int64
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordCompletion records the outcome of one completion round-trip.
func (m *Metrics) RecordCompletion(duration time.Duration, err error) {
	m.requestTotal.Add(1)
	m.totalDurationMs.Add(duration.Milliseconds())
	if err != nil {
		m.requestFailed.Add(1)
	}
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.totalDurationMs.Store(0)
}

// MetricsSnapshot is a point-in-time view of the counters.
type MetricsSnapshot struct {
	RequestTotal      int64 `json:"request_total"`
	RequestFailed     int64 `json:"request_failed"`
	AverageDurationMs int64 `json:"average_duration_ms"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	total := m.requestTotal.Load()
	snapshot := MetricsSnapshot{
		RequestTotal:  total,
		RequestFailed: m.requestFailed.Load(),
	}
	if total > 0 {
		snapshot.AverageDurationMs = m.totalDurationMs.Load() / total
	}
	return snapshot
}
