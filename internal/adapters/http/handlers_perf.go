package web

import (
	"net/http"
	"time"

	"clubhouse/internal/adapters/http/perf"
)

// DefaultPerfWindow is the snapshot window when none is requested.
const DefaultPerfWindow = 15 * time.Minute

type labelStatJSON struct {
	Label     string  `json:"label"`
	Count     int     `json:"count"`
	AvgMs     float64 `json:"avgMs"`
	MaxMs     float64 `json:"maxMs"`
	Conflicts int     `json:"conflicts,omitempty"`
	Errors    int     `json:"errors,omitempty"`
}

type perfSnapshotJSON struct {
	WindowMinutes  int             `json:"windowMinutes"`
	TotalRecorded  int64           `json:"totalRecorded"`
	Requests       int             `json:"requests"`
	P50Ms          float64         `json:"p50Ms"`
	P95Ms          float64         `json:"p95Ms"`
	P99Ms          float64         `json:"p99Ms"`
	Conflicts      int             `json:"conflicts"`
	ServerErrors   int             `json:"serverErrors"`
	SlowestRoutes  []labelStatJSON `json:"slowestRoutes"`
	SlowestQueries []labelStatJSON `json:"slowestQueries"`
}

func toLabelStats(stats []perf.LabelStat) []labelStatJSON {
	out := make([]labelStatJSON, 0, len(stats))
	for _, s := range stats {
		out = append(out, labelStatJSON{
			Label:     s.Label,
			Count:     s.Count,
			AvgMs:     s.AvgMs,
			MaxMs:     s.MaxMs,
			Conflicts: s.Conflicts,
			Errors:    s.Errors,
		})
	}
	return out
}

// handlePerf handles GET /api/admin/perf?minutes=&top=
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeJSON(w, http.StatusOK, perfSnapshotJSON{})
		return
	}
	minutes, err := queryInt(r, "minutes", int(DefaultPerfWindow/time.Minute))
	if err != nil {
		writeError(w, err)
		return
	}
	top, err := queryInt(r, "top", 10)
	if err != nil {
		writeError(w, err)
		return
	}
	if minutes <= 0 {
		minutes = int(DefaultPerfWindow / time.Minute)
	}
	if top <= 0 {
		top = 10
	}

	snap := s.collector.Snapshot(time.Now().Add(-time.Duration(minutes)*time.Minute), top)
	writeJSON(w, http.StatusOK, perfSnapshotJSON{
		WindowMinutes:  minutes,
		TotalRecorded:  snap.TotalRecorded,
		Requests:       snap.Requests,
		P50Ms:          snap.RequestP50Ms,
		P95Ms:          snap.RequestP95Ms,
		P99Ms:          snap.RequestP99Ms,
		Conflicts:      snap.Conflicts,
		ServerErrors:   snap.ServerErrors,
		SlowestRoutes:  toLabelStats(snap.SlowestRoutes),
		SlowestQueries: toLabelStats(snap.SlowestQueries),
	})
}
