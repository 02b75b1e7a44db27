package authcore

import (
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics()

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricRefreshRejected)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("login success = %d, want 2", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricRefreshRejected] != 1 {
		t.Fatalf("refresh rejected = %d, want 1", snap.Counters[MetricRefreshRejected])
	}
	if snap.Counters[MetricLogout] != 0 {
		t.Fatalf("logout = %d, want 0", snap.Counters[MetricLogout])
	}
}

func TestMetricsSnapshotIsACopy(t *testing.T) {
	m := NewMetrics()
	m.Inc(MetricLoginSuccess)

	snap := m.Snapshot()
	m.Inc(MetricLoginSuccess)

	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("snapshot mutated after Inc: %d", snap.Counters[MetricLoginSuccess])
	}
}

func TestMetricsUnknownIDIgnored(t *testing.T) {
	m := NewMetrics()
	m.Inc(MetricID(9999))

	for id, count := range m.Snapshot().Counters {
		if count != 0 {
			t.Fatalf("counter %d = %d after unknown Inc", id, count)
		}
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("nil Metrics snapshot has %d counters", len(snap.Counters))
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricRefreshSuccess]; got != 8000 {
		t.Fatalf("refresh success = %d, want 8000", got)
	}
}
