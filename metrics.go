package authcore

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricRegisterSuccess counts successful registrations.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterConflict counts duplicate-identity registrations.
	MetricRegisterConflict
	// MetricLoginSuccess counts verified logins.
	MetricLoginSuccess
	// MetricLoginFailure counts credential mismatches.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins refused by the attempt guard.
	MetricLoginRateLimited
	// MetricRefreshSuccess counts completed token rotations.
	MetricRefreshSuccess
	// MetricRefreshRejected counts refresh tokens refused at the boundary:
	// decode failures, missing jti, expired or already-consumed records.
	MetricRefreshRejected
	// MetricLogout counts logout calls, including tolerant no-ops.
	MetricLogout

	metricCount
)

// Metrics is a fixed-size atomic counter registry. All methods are safe
// for concurrent use; a nil *Metrics is a no-op.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// NewMetrics returns an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc adds one to the counter. Unknown IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values. Counters may advance while
// the snapshot is taken; each individual read is atomic.
func (m *Metrics) Snapshot() MetricsSnapshot {
	out := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricCount),
	}
	if m == nil {
		return out
	}
	for id := MetricID(0); id < metricCount; id++ {
		out.Counters[id] = m.counters[id].Load()
	}
	return out
}
