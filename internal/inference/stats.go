package inference

import (
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of an engine's execution counters.
type Stats struct {
	TotalInferences uint64
	LastDuration    time.Duration
	TotalDuration   time.Duration
}

// AverageDuration returns the mean per-call duration, or zero before the
// first call.
func (s Stats) AverageDuration() time.Duration {
	if s.TotalInferences == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.TotalInferences)
}

// Tracker accumulates per-call timings. Safe for concurrent use; engines
// record into it from Run and the server reads snapshots for /stats.
type Tracker struct {
	mu    sync.Mutex
	stats Stats
}

func (t *Tracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalInferences++
	t.stats.LastDuration = d
	t.stats.TotalDuration += d
}

func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// StatsReporter is implemented by engines that track timings; the server
// uses it when present.
type StatsReporter interface {
	Stats() Stats
}
