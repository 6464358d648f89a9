// Package monitoring summarizes recent analysis runs from the run ledger.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/format-analysis/internal/model"
	"github.com/sells-group/format-analysis/internal/store"
)

// Snapshot holds a point-in-time view of ledger activity.
type Snapshot struct {
	// Run counts (within lookback window).
	Total    int                   `json:"total"`
	Complete int                   `json:"complete"`
	Failed   int                   `json:"failed"`
	Running  int                   `json:"running"`
	FailRate float64               `json:"fail_rate"`
	Modes    map[model.RunMode]int `json:"modes"`

	// Totals across finished runs.
	Files      int `json:"files"`
	Rows       int `json:"rows"`
	Suppressed int `json:"suppressed"`

	// Mean duration of each completed phase.
	PhaseAvg map[string]time.Duration `json:"phase_avg"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the slice of the ledger the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers run statistics from the ledger.
type Collector struct {
	runs RunLister
}

// NewCollector creates a new collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs}
}

// Collect summarizes the runs started within the lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := time.Now().UTC()
	snap := &Snapshot{
		Modes:         make(map[model.RunMode]int),
		PhaseAvg:      make(map[string]time.Duration),
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	phaseTotal := make(map[string]time.Duration)
	phaseCount := make(map[string]int)

	snap.Total = len(runs)
	for _, r := range runs {
		snap.Modes[r.Mode]++
		switch r.Status {
		case model.RunStatusComplete:
			snap.Complete++
		case model.RunStatusFailed:
			snap.Failed++
		case model.RunStatusRunning:
			snap.Running++
		}
		if r.Result == nil {
			continue
		}
		snap.Files += r.Result.Files
		snap.Rows += r.Result.Rows
		snap.Suppressed += r.Result.Suppressed
		for _, p := range r.Result.Phases {
			if p.Status != model.PhaseStatusComplete {
				continue
			}
			phaseTotal[p.Name] += p.Duration
			phaseCount[p.Name]++
		}
	}

	if finished := snap.Complete + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	for name, total := range phaseTotal {
		snap.PhaseAvg[name] = total / time.Duration(phaseCount[name])
	}

	return snap, nil
}
