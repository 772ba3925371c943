package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ticksProcessed atomic.Uint64
	ticksThrottled atomic.Uint64
	ticksStale     atomic.Uint64
	fills          atomic.Uint64
	pairsOpened    atomic.Uint64
	pairsCompleted atomic.Uint64
	pairsExpired   atomic.Uint64
	errorsTotal    atomic.Uint64

	// Latency tracking for the tick hotpath
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTick records one processed tick with its dispatch latency.
func (m *Metrics) RecordTick(latencyNs int64) {
	m.ticksProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordThrottledTick records a tick skipped by the matching throttle.
func (m *Metrics) RecordThrottledTick() {
	m.ticksThrottled.Add(1)
}

// RecordStaleTick records a dropped out-of-order tick.
func (m *Metrics) RecordStaleTick() {
	m.ticksStale.Add(1)
}

// RecordFill records one applied fill (partial or complete).
func (m *Metrics) RecordFill() {
	m.fills.Add(1)
}

// RecordPairOpened records a newly created pair.
func (m *Metrics) RecordPairOpened() {
	m.pairsOpened.Add(1)
}

// RecordPairCompleted records a pair whose both legs filled.
func (m *Metrics) RecordPairCompleted() {
	m.pairsCompleted.Add(1)
}

// RecordPairExpired records a pair that aged out unfilled.
func (m *Metrics) RecordPairExpired() {
	m.pairsExpired.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TicksProcessed uint64
	TicksThrottled uint64
	TicksStale     uint64
	Fills          uint64
	PairsOpened    uint64
	PairsCompleted uint64
	PairsExpired   uint64
	ErrorsTotal    uint64
	AvgLatencyNs   int64
	Timestamp      time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		TicksProcessed: m.ticksProcessed.Load(),
		TicksThrottled: m.ticksThrottled.Load(),
		TicksStale:     m.ticksStale.Load(),
		Fills:          m.fills.Load(),
		PairsOpened:    m.pairsOpened.Load(),
		PairsCompleted: m.pairsCompleted.Load(),
		PairsExpired:   m.pairsExpired.Load(),
		ErrorsTotal:    m.errorsTotal.Load(),
		AvgLatencyNs:   avgLatency,
		Timestamp:      time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticksProcessed.Store(0)
	m.ticksThrottled.Store(0)
	m.ticksStale.Store(0)
	m.fills.Store(0)
	m.pairsOpened.Store(0)
	m.pairsCompleted.Store(0)
	m.pairsExpired.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
}
