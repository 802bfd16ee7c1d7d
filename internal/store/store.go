// Package store persists completed regression runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/mentor-regress/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// DefaultListLimit caps ListRuns when the filter sets no limit.
const DefaultListLimit = 100

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	DegradedOnly bool      `json:"degraded_only,omitempty"`
	Since        time.Time `json:"since,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Offset       int       `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines run history persistence.
type Store interface {
	// SaveRun stores a finished run, assigning RunID when empty, and returns
	// the id.
	SaveRun(ctx context.Context, s *model.RunSummary) (string, error)
	GetRun(ctx context.Context, id string) (*model.RunSummary, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

func recordOf(s *model.RunSummary) model.RunRecord {
	return model.RunRecord{
		ID:              s.RunID,
		StartedAt:       s.StartedAt.UTC(),
		FinishedAt:      s.FinishedAt.UTC(),
		TotalProcessed:  s.TotalProcessed,
		TotalSuccessful: s.TotalSuccessful,
		TotalDegraded:   s.TotalDegraded,
		High:            s.Counts.High,
		Medium:          s.Counts.Medium,
	}
}
