package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	requestNanos map[string]int64
	errorCount   map[string]int64
	engineCount  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		requestNanos: make(map[string]int64),
		errorCount:   make(map[string]int64),
		engineCount:  make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestNanos[key] += duration.Nanoseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// AddEngine adds n to an engine counter such as "rebalance.reassigned".
func (m *Metrics) AddEngine(name string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engineCount[name] += int64(n)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests       map[string]int64   `json:"requests"`
	AvgLatencyMsec map[string]float64 `json:"avg_latency_ms"`
	Errors         map[string]int64   `json:"errors"`
	Engine         map[string]int64   `json:"engine"`
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:       map[string]int64{},
		AvgLatencyMsec: map[string]float64{},
		Errors:         map[string]int64{},
		Engine:         map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		snap.Requests[k] = v
		if v > 0 {
			snap.AvgLatencyMsec[k] = float64(m.requestNanos[k]) / float64(v) / float64(time.Millisecond)
		}
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.engineCount {
		snap.Engine[k] = v
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
