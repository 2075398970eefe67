package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/v1/tickets/:id", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/api/v1/tickets/:id", "GET", 200, 4*time.Millisecond)
	m.RecordError("/api/v1/tickets/:id", "GET", "NOT_FOUND")
	m.AddEngine("rebalance.reassigned", 2)
	m.AddEngine("rebalance.reassigned", 0)

	snap := m.Snapshot()
	key := "/api/v1/tickets/:id|GET|200"
	if snap.Requests[key] != 2 {
		t.Fatalf("requests = %d, want 2", snap.Requests[key])
	}
	if snap.AvgLatencyMsec[key] != 3 {
		t.Fatalf("avg latency = %v, want 3", snap.AvgLatencyMsec[key])
	}
	if snap.Errors["/api/v1/tickets/:id|GET|NOT_FOUND"] != 1 {
		t.Fatalf("error counter not recorded")
	}
	if snap.Engine["rebalance.reassigned"] != 2 {
		t.Fatalf("engine counter = %d, want 2", snap.Engine["rebalance.reassigned"])
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.AddEngine("x", 1)
	if len(m.Snapshot().Requests) != 0 {
		t.Fatalf("nil metrics should snapshot empty")
	}
}
