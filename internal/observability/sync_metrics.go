package observability

import (
	"sync/atomic"
	"time"
)

// process-local counters for the mirror sync worker; cheap enough to read
// from a health endpoint without touching the prometheus registry

type SyncMetrics struct {
	pushed  atomic.Uint64
	done    atomic.Uint64
	failed  atomic.Uint64
	retried atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewSyncMetrics() *SyncMetrics {
	m := &SyncMetrics{}
	m.durationMax.Store(0)
	return m
}

func (m *SyncMetrics) IncPushed() {
	m.pushed.Add(1)
}
func (m *SyncMetrics) IncDone() {
	m.done.Add(1)
}
func (m *SyncMetrics) IncFailed() {
	m.failed.Add(1)
}

func (m *SyncMetrics) IncRetried() {
	m.retried.Add(1)
}

func (m *SyncMetrics) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	// max update

	for {
		curr := m.durationMax.Load()

		if ns <= curr {
			return
		}

		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type SyncMetricsSnapShot struct {
	Pushed          uint64
	Done            uint64
	Failed          uint64
	Retried         uint64
	DurationCount   uint64
	AverageDuration time.Duration
	MaxDuration     time.Duration
}

func (m *SyncMetrics) Snapshot() SyncMetricsSnapShot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()
	max := m.durationMax.Load()

	var avg time.Duration

	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return SyncMetricsSnapShot{
		Pushed:          m.pushed.Load(),
		Done:            m.done.Load(),
		Failed:          m.failed.Load(),
		Retried:         m.retried.Load(),
		DurationCount:   count,
		AverageDuration: avg,
		MaxDuration:     time.Duration(max),
	}

}
