// Package monitoring summarizes recorded regression runs over a time window.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mentor-regress/internal/model"
	"github.com/sells-group/mentor-regress/internal/store"
)

// maxRuns bounds the runs read for one snapshot.
const maxRuns = 10000

// RunLister is the part of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.RunRecord, error)
}

// Snapshot is a point-in-time view of regression health.
type Snapshot struct {
	Runs         int `json:"runs" yaml:"runs"`
	DegradedRuns int `json:"degraded_runs" yaml:"degraded_runs"`

	RowsProcessed int     `json:"rows_processed" yaml:"rows_processed"`
	RowsFailed    int     `json:"rows_failed" yaml:"rows_failed"`
	FailRate      float64 `json:"fail_rate" yaml:"fail_rate"`

	Degraded int `json:"degraded" yaml:"degraded"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`

	AvgDuration time.Duration `json:"avg_duration" yaml:"avg_duration"`
	LastRunAt   time.Time     `json:"last_run_at,omitzero" yaml:"last_run_at,omitempty"`

	Lookback    time.Duration `json:"lookback" yaml:"lookback"`
	CollectedAt time.Time     `json:"collected_at" yaml:"collected_at"`
}

// Collector gathers snapshots from run history.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect summarizes the runs started within lookback. Zero means all runs.
func (c *Collector) Collect(ctx context.Context, lookback time.Duration) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{Lookback: lookback, CollectedAt: now}

	filter := store.RunFilter{Limit: maxRuns}
	if lookback > 0 {
		filter.Since = now.Add(-lookback)
	}
	runs, err := c.runs.ListRuns(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	var totalDur time.Duration
	for _, r := range runs {
		snap.Runs++
		if r.TotalDegraded > 0 {
			snap.DegradedRuns++
		}
		snap.RowsProcessed += r.TotalProcessed
		snap.RowsFailed += r.TotalProcessed - r.TotalSuccessful
		snap.Degraded += r.TotalDegraded
		snap.High += r.High
		snap.Medium += r.Medium
		totalDur += r.FinishedAt.Sub(r.StartedAt)
		if r.StartedAt.After(snap.LastRunAt) {
			snap.LastRunAt = r.StartedAt
		}
	}

	if snap.Runs > 0 {
		snap.AvgDuration = totalDur / time.Duration(snap.Runs)
	}
	if snap.RowsProcessed > 0 {
		snap.FailRate = float64(snap.RowsFailed) / float64(snap.RowsProcessed)
	}
	return snap, nil
}
