package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations so several sequencers can share one instance.
type Metrics struct {
	// Counters
	deposits    atomic.Uint64
	withdrawals atomic.Uint64
	swaps       atomic.Uint64
	rejected    atomic.Uint64 // operations refused on input or liquidity grounds
	defects     atomic.Uint64 // operations that tripped an invariant guard
	errorsTotal atomic.Uint64 // infrastructure errors (journal writes)

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activePools atomic.Int32
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordLatency(latencyNs int64) {
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordDeposit records an applied add_liquidity.
func (m *Metrics) RecordDeposit(latencyNs int64) {
	m.deposits.Add(1)
	m.recordLatency(latencyNs)
}

// RecordWithdrawal records an applied remove_liquidity.
func (m *Metrics) RecordWithdrawal(latencyNs int64) {
	m.withdrawals.Add(1)
	m.recordLatency(latencyNs)
}

// RecordSwap records an applied swap.
func (m *Metrics) RecordSwap(latencyNs int64) {
	m.swaps.Add(1)
	m.recordLatency(latencyNs)
}

// RecordRejected records an operation refused by the pool.
func (m *Metrics) RecordRejected() {
	m.rejected.Add(1)
}

// RecordDefect records an invariant violation.
func (m *Metrics) RecordDefect() {
	m.defects.Add(1)
}

// RecordError records an infrastructure error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementPools increments active pools by 1.
func (m *Metrics) IncrementPools() {
	m.activePools.Add(1)
}

// DecrementPools decrements active pools by 1.
func (m *Metrics) DecrementPools() {
	m.activePools.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Deposits     uint64
	Withdrawals  uint64
	Swaps        uint64
	Rejected     uint64
	Defects      uint64
	ErrorsTotal  uint64
	AvgLatencyNs int64
	ActivePools  int32
	Timestamp    time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		Deposits:     m.deposits.Load(),
		Withdrawals:  m.withdrawals.Load(),
		Swaps:        m.swaps.Load(),
		Rejected:     m.rejected.Load(),
		Defects:      m.defects.Load(),
		ErrorsTotal:  m.errorsTotal.Load(),
		AvgLatencyNs: avgLatency,
		ActivePools:  m.activePools.Load(),
		Timestamp:    time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.deposits.Store(0)
	m.withdrawals.Store(0)
	m.swaps.Store(0)
	m.rejected.Store(0)
	m.defects.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activePools.Store(0)
}
