package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ordersPlaced    atomic.Uint64
	ordersProcessed atomic.Uint64
	ordersRejected  atomic.Uint64
	ordersDropped   atomic.Uint64
	priceCuts       atomic.Uint64
	missedCuts      atomic.Uint64
	bufferWaits     atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeBrokers  atomic.Int32
	activeTheaters atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordOrderPlaced records an order enqueued by a broker.
func (m *Metrics) RecordOrderPlaced() {
	m.ordersPlaced.Add(1)
}

// RecordProcessed records a successfully processed order with latency.
func (m *Metrics) RecordProcessed(latencyNs int64) {
	m.ordersProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordRejected records an order dropped by validation.
func (m *Metrics) RecordRejected() {
	m.ordersRejected.Add(1)
}

// RecordDropped records an order drained after every theater closed.
func (m *Metrics) RecordDropped() {
	m.ordersDropped.Add(1)
}

// RecordPriceCut records a broadcast price cut.
func (m *Metrics) RecordPriceCut() {
	m.priceCuts.Add(1)
}

// RecordMissedCut records a price drop nobody was subscribed to.
func (m *Metrics) RecordMissedCut() {
	m.missedCuts.Add(1)
}

// RecordBufferWait records a put or take that had to wait on the buffer condition.
func (m *Metrics) RecordBufferWait() {
	m.bufferWaits.Add(1)
}

// IncrementBrokers increments active brokers by 1.
func (m *Metrics) IncrementBrokers() {
	m.activeBrokers.Add(1)
}

// DecrementBrokers decrements active brokers by 1.
func (m *Metrics) DecrementBrokers() {
	m.activeBrokers.Add(-1)
}

// IncrementTheaters increments active theaters by 1.
func (m *Metrics) IncrementTheaters() {
	m.activeTheaters.Add(1)
}

// DecrementTheaters decrements active theaters by 1.
func (m *Metrics) DecrementTheaters() {
	m.activeTheaters.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	OrdersPlaced    uint64    `json:"orders_placed"`
	OrdersProcessed uint64    `json:"orders_processed"`
	OrdersRejected  uint64    `json:"orders_rejected"`
	OrdersDropped   uint64    `json:"orders_dropped"`
	PriceCuts       uint64    `json:"price_cuts"`
	MissedCuts      uint64    `json:"missed_cuts"`
	BufferWaits     uint64    `json:"buffer_waits"`
	AvgLatencyNs    int64     `json:"avg_latency_ns"`
	ActiveBrokers   int32     `json:"active_brokers"`
	ActiveTheaters  int32     `json:"active_theaters"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		OrdersPlaced:    m.ordersPlaced.Load(),
		OrdersProcessed: m.ordersProcessed.Load(),
		OrdersRejected:  m.ordersRejected.Load(),
		OrdersDropped:   m.ordersDropped.Load(),
		PriceCuts:       m.priceCuts.Load(),
		MissedCuts:      m.missedCuts.Load(),
		BufferWaits:     m.bufferWaits.Load(),
		AvgLatencyNs:    avgLatency,
		ActiveBrokers:   m.activeBrokers.Load(),
		ActiveTheaters:  m.activeTheaters.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ordersPlaced.Store(0)
	m.ordersProcessed.Store(0)
	m.ordersRejected.Store(0)
	m.ordersDropped.Store(0)
	m.priceCuts.Store(0)
	m.missedCuts.Store(0)
	m.bufferWaits.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeBrokers.Store(0)
	m.activeTheaters.Store(0)
}
