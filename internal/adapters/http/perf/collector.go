// Package perf keeps a bounded window of request and query timings for the
// admin perf endpoint.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the capacity used when NewCollector is given zero.
const DefaultRingSize = 10000

// EntryKind separates HTTP requests from store queries.
type EntryKind uint8

// Entry kinds.
const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is one timing sample.
type Entry struct {
	Kind       EntryKind
	Label      string // "POST /api/attendance/attending" or "UPDATE attendance_record"
	StatusCode int    // requests only
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring of entries. Recording overwrites the oldest
// sample once full; aggregation happens only in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   atomic.Int64
}

// NewCollector returns a collector holding at most size entries.
// PRE: size >= 0
// POST: storage is preallocated
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded counts every entry ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// LabelStat aggregates the samples of one label.
type LabelStat struct {
	Label     string
	Count     int
	AvgMs     float64
	MaxMs     float64
	Conflicts int // 409 responses
	Errors    int // 5xx responses
	totalMs   float64
}

// Snapshot is the aggregated view served to admins.
type Snapshot struct {
	TotalRecorded  int64
	Requests       int
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	Conflicts      int
	ServerErrors   int
	SlowestRoutes  []LabelStat
	SlowestQueries []LabelStat
}

// Snapshot aggregates entries recorded at or after since.
// PRE: topN > 0
// POST: slowest lists hold at most topN labels, by average duration
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	routes := make(map[string]*LabelStat)
	queries := make(map[string]*LabelStat)
	var durations []float64
	snap := Snapshot{TotalRecorded: c.TotalRecorded()}

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		stats := queries
		if e.Kind == KindRequest {
			stats = routes
			durations = append(durations, e.DurationMs)
		}
		s := stats[e.Label]
		if s == nil {
			s = &LabelStat{Label: e.Label}
			stats[e.Label] = s
		}
		s.Count++
		s.totalMs += e.DurationMs
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
		switch {
		case e.StatusCode == 409:
			s.Conflicts++
			snap.Conflicts++
		case e.StatusCode >= 500:
			s.Errors++
			snap.ServerErrors++
		}
	}

	snap.Requests = len(durations)
	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	snap.SlowestRoutes = slowest(routes, topN)
	snap.SlowestQueries = slowest(queries, topN)
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(rank)), int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func slowest(stats map[string]*LabelStat, n int) []LabelStat {
	out := make([]LabelStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.totalMs / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMs != out[j].AvgMs {
			return out[i].AvgMs > out[j].AvgMs
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
