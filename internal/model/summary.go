package model

import "time"

// CategoryResult is the outcome of running one mentor's sheet.
type CategoryResult struct {
	Category   string           `json:"category" yaml:"category"`
	Processed  int              `json:"processed" yaml:"processed"`
	Successful int              `json:"successful" yaml:"successful"`
	Degraded   []DegradedRecord `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed returns the number of processed rows whose fetch failed.
func (c CategoryResult) Failed() int {
	return c.Processed - c.Successful
}

// CategoryGroup holds the degraded records of one category in detection order.
type CategoryGroup struct {
	Category string           `json:"category" yaml:"category"`
	Records  []DegradedRecord `json:"records" yaml:"records"`
}

// SeverityCounts tallies degraded records per severity.
type SeverityCounts struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
}

// RunSummary is the terminal artifact of a sweep.
type RunSummary struct {
	RunID           string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	StartedAt       time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time        `json:"finished_at" yaml:"finished_at"`
	TotalProcessed  int              `json:"total_processed" yaml:"total_processed"`
	TotalSuccessful int              `json:"total_successful" yaml:"total_successful"`
	TotalDegraded   int              `json:"total_degraded" yaml:"total_degraded"`
	Counts          SeverityCounts   `json:"counts_by_severity" yaml:"counts_by_severity"`
	Groups          []CategoryGroup  `json:"degraded" yaml:"degraded"`
	Preview         []DegradedRecord `json:"preview" yaml:"preview"`
	Remaining       int              `json:"remaining" yaml:"remaining"`
	Clean           bool             `json:"clean" yaml:"clean"`
	Message         string           `json:"message,omitempty" yaml:"message,omitempty"`
	Categories      []CategoryResult `json:"categories,omitempty" yaml:"categories,omitempty"`
	ReportPath      string           `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	ArchiveURL      string           `json:"archive_url,omitempty" yaml:"archive_url,omitempty"`
}

// TotalFailed returns processed rows whose fetch failed.
func (s *RunSummary) TotalFailed() int {
	return s.TotalProcessed - s.TotalSuccessful
}

// Records flattens the groups back into one slice.
func (s *RunSummary) Records() []DegradedRecord {
	out := make([]DegradedRecord, 0, s.TotalDegraded)
	for _, g := range s.Groups {
		out = append(out, g.Records...)
	}
	return out
}

// RunRecord is the listing view of a persisted run.
type RunRecord struct {
	ID              string    `json:"id" yaml:"id"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time `json:"finished_at" yaml:"finished_at"`
	TotalProcessed  int       `json:"total_processed" yaml:"total_processed"`
	TotalSuccessful int       `json:"total_successful" yaml:"total_successful"`
	TotalDegraded   int       `json:"total_degraded" yaml:"total_degraded"`
	High            int       `json:"high" yaml:"high"`
	Medium          int       `json:"medium" yaml:"medium"`
}
