// Package monitor tracks bridge activity: local API traffic, outbound
// upstream calls, WebSocket connections, and broadcast volume.
package monitor

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is the process-wide metrics sink. All methods are safe for
// concurrent use.
type Metrics struct {
	// UpstreamLatency samples every outbound authenticated call.
	UpstreamLatency *LatencyHistogram

	apiRequests     uint64
	apiErrors       uint64
	upstreamCalls   uint64
	upstreamErrors  uint64
	wsConnects      uint64
	wsDisconnects   uint64
	framesDelivered uint64
	pollCycles      uint64
	pollErrors      uint64

	startedAt time.Time
}

// NewMetrics creates a metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		UpstreamLatency: NewLatencyHistogram(1000),
		startedAt:       time.Now(),
	}
}

// RecordUpstream counts one outbound call and samples its latency. It
// satisfies the upstream client's Recorder interface.
func (m *Metrics) RecordUpstream(elapsed time.Duration, err error) {
	atomic.AddUint64(&m.upstreamCalls, 1)
	if err != nil {
		atomic.AddUint64(&m.upstreamErrors, 1)
	}
	m.UpstreamLatency.RecordDuration(elapsed)
}

// IncrementAPIRequests counts one local REST request.
func (m *Metrics) IncrementAPIRequests() {
	atomic.AddUint64(&m.apiRequests, 1)
}

// IncrementAPIErrors counts one local REST error response.
func (m *Metrics) IncrementAPIErrors() {
	atomic.AddUint64(&m.apiErrors, 1)
}

// WSConnected counts one accepted WebSocket connection.
func (m *Metrics) WSConnected() {
	atomic.AddUint64(&m.wsConnects, 1)
}

// WSDisconnected counts one closed WebSocket connection.
func (m *Metrics) WSDisconnected() {
	atomic.AddUint64(&m.wsDisconnects, 1)
}

// FramesDelivered counts frames fanned out to subscribers.
func (m *Metrics) FramesDelivered(n int) {
	if n > 0 {
		atomic.AddUint64(&m.framesDelivered, uint64(n))
	}
}

// PollCycle counts one completed poll-and-fanout cycle.
func (m *Metrics) PollCycle() {
	atomic.AddUint64(&m.pollCycles, 1)
}

// PollError counts one failed poll cycle.
func (m *Metrics) PollError() {
	atomic.AddUint64(&m.pollErrors, 1)
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	UpstreamLatency LatencyStats `json:"upstream_latency_ms"`
	APIRequests     uint64       `json:"api_requests"`
	APIErrors       uint64       `json:"api_errors"`
	UpstreamCalls   uint64       `json:"upstream_calls"`
	UpstreamErrors  uint64       `json:"upstream_errors"`
	WSConnects      uint64       `json:"ws_connects"`
	WSDisconnects   uint64       `json:"ws_disconnects"`
	FramesDelivered uint64       `json:"frames_delivered"`
	PollCycles      uint64       `json:"poll_cycles"`
	PollErrors      uint64       `json:"poll_errors"`
	GoroutineCount  int          `json:"goroutine_count"`
	HeapAlloc       uint64       `json:"heap_alloc_bytes"`
	UptimeSeconds   float64      `json:"uptime_seconds"`
	Timestamp       time.Time    `json:"timestamp"`
}

// GetSnapshot returns a point-in-time metrics snapshot.
func (m *Metrics) GetSnapshot() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return Snapshot{
		UpstreamLatency: m.UpstreamLatency.Stats(),
		APIRequests:     atomic.LoadUint64(&m.apiRequests),
		APIErrors:       atomic.LoadUint64(&m.apiErrors),
		UpstreamCalls:   atomic.LoadUint64(&m.upstreamCalls),
		UpstreamErrors:  atomic.LoadUint64(&m.upstreamErrors),
		WSConnects:      atomic.LoadUint64(&m.wsConnects),
		WSDisconnects:   atomic.LoadUint64(&m.wsDisconnects),
		FramesDelivered: atomic.LoadUint64(&m.framesDelivered),
		PollCycles:      atomic.LoadUint64(&m.pollCycles),
		PollErrors:      atomic.LoadUint64(&m.pollErrors),
		GoroutineCount:  runtime.NumGoroutine(),
		HeapAlloc:       memStats.HeapAlloc,
		UptimeSeconds:   time.Since(m.startedAt).Seconds(),
		Timestamp:       time.Now(),
	}
}

// LatencyHistogram tracks latency samples with a sliding window and
// lazily computed stats.
type LatencyHistogram struct {
	mu          sync.Mutex
	samples     []float64
	maxSize     int
	dirty       bool
	cachedStats LatencyStats
}

// NewLatencyHistogram creates a sliding window histogram.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		samples: make([]float64, 0, size),
		maxSize: size,
		dirty:   true,
	}
}

// Record adds a latency sample in milliseconds.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.maxSize {
		h.samples = h.samples[1:]
	}
	h.samples = append(h.samples, latencyMs)
	h.dirty = true
}

// RecordDuration converts duration to ms and records.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// Stats returns min, max, avg, p50, p95, p99. Recomputes only when
// samples have changed since the last call.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirty && h.cachedStats.Count > 0 {
		return h.cachedStats
	}

	n := len(h.samples)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	var sum float64
	min, max := sorted[0], sorted[n-1]
	for _, v := range sorted {
		sum += v
	}

	h.cachedStats = LatencyStats{
		Min:   min,
		Max:   max,
		Avg:   sum / float64(n),
		P50:   sorted[n/2],
		P95:   sorted[int(float64(n)*0.95)],
		P99:   sorted[int(float64(n)*0.99)],
		Count: n,
	}
	h.dirty = false

	return h.cachedStats
}

// LatencyStats holds computed latency statistics.
type LatencyStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Count int     `json:"count"`
}
