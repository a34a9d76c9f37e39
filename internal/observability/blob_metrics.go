package observability

import (
	"sync/atomic"
	"time"
)

// BlobStats keeps process-local counters for blob store calls, reported by /readyz.
type BlobStats struct {
	ok       atomic.Uint64
	failed   atomic.Uint64
	rejected atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewBlobStats() *BlobStats {
	return &BlobStats{}
}

func (m *BlobStats) Record(result string, d time.Duration) {
	switch result {
	case "ok":
		m.ok.Add(1)
	case "rejected":
		m.rejected.Add(1)
		// rejected calls never reached upstream
		return
	default:
		m.failed.Add(1)
	}

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

type BlobStatsSnapshot struct {
	OK              uint64        `json:"ok"`
	Failed          uint64        `json:"failed"`
	Rejected        uint64        `json:"rejected"`
	AverageDuration time.Duration `json:"avg_duration_ns"`
	MaxDuration     time.Duration `json:"max_duration_ns"`
}

func (m *BlobStats) Snapshot() BlobStatsSnapshot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return BlobStatsSnapshot{
		OK:              m.ok.Load(),
		Failed:          m.failed.Load(),
		Rejected:        m.rejected.Load(),
		AverageDuration: avg,
		MaxDuration:     time.Duration(m.durationMax.Load()),
	}
}

// ObserveBlob satisfies blob.Recorder.
func (p *Prom) ObserveBlob(op, result string, d time.Duration) {
	p.BlobDuration.WithLabelValues(op, result).Observe(d.Seconds())
	p.BlobResults.WithLabelValues(op, result).Inc()
	p.Blob.Record(result, d)
}

// ObserveAuth counts authentication outcomes by action (login, register, refresh, reset).
func (p *Prom) ObserveAuth(action, outcome string) {
	p.AuthAttempts.WithLabelValues(action, outcome).Inc()
}
