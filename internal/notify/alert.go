// Package notify builds the degradation alert of a run and delivers it to a
// chat webhook.
package notify

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sells-group/mentor-regress/internal/model"
)

// Theme colours of a card: red when any issue is HIGH, orange otherwise.
const (
	ColorHigh   = "FF0000"
	ColorMedium = "FFA500"
)

const promptPreviewChars = 100

// Issue is one detailed degradation in an alert.
type Issue struct {
	Number   int            `json:"number"`
	Category string         `json:"category"`
	RowID    int            `json:"row_id"`
	Prompt   string         `json:"prompt"`
	Reason   string         `json:"reason"`
	Severity model.Severity `json:"severity"`
}

// Title is the issue's heading, e.g. "Issue #1: PSP Mentor - Row 4".
func (i Issue) Title() string {
	return fmt.Sprintf("Issue #%d: %s - Row %d", i.Number, i.Category, i.RowID)
}

// Emoji marks the issue's severity.
func (i Issue) Emoji() string {
	if i.Severity == model.SeverityHigh {
		return "🔴"
	}
	return "🟠"
}

// Alert is the structured summary handed to a notifier.
type Alert struct {
	Total      int       `json:"total"`
	High       int       `json:"high"`
	Medium     int       `json:"medium"`
	ReportFile string    `json:"report_file"`
	ArchiveURL string    `json:"archive_url,omitempty"`
	Issues     []Issue   `json:"issues"`
	Remaining  int       `json:"remaining"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewAlert builds the alert of a summary. reportPath is shown by base name;
// an empty path means no report was written.
func NewAlert(s *model.RunSummary, reportPath string, now time.Time) Alert {
	a := Alert{
		Total:      s.TotalDegraded,
		High:       s.Counts.High,
		Medium:     s.Counts.Medium,
		ArchiveURL: s.ArchiveURL,
		Remaining:  s.Remaining,
		Timestamp:  now,
		Issues:     make([]Issue, 0, len(s.Preview)),
	}
	if reportPath != "" {
		a.ReportFile = filepath.Base(reportPath)
	}
	for i, rec := range s.Preview {
		a.Issues = append(a.Issues, Issue{
			Number:   i + 1,
			Category: rec.Category,
			RowID:    rec.RowID,
			Prompt:   previewPrompt(rec.Prompt),
			Reason:   rec.Reason,
			Severity: rec.Severity,
		})
	}
	return a
}

// Summary is the one-line headline of the alert.
func (a Alert) Summary() string {
	return fmt.Sprintf("⚠️ %d Degraded API Responses Detected", a.Total)
}

// Title is the card title.
func (a Alert) Title() string {
	return fmt.Sprintf("🚨 Quality Alert: %d Degraded Responses", a.Total)
}

// ThemeColor is the card accent colour.
func (a Alert) ThemeColor() string {
	if a.High > 0 {
		return ColorHigh
	}
	return ColorMedium
}

// RemainingNote is the trailing note when issues were left out, or "".
func (a Alert) RemainingNote() string {
	if a.Remaining <= 0 {
		return ""
	}
	return fmt.Sprintf("... and **%d more issues**. Download the full report for details.", a.Remaining)
}

func previewPrompt(p string) string {
	r := []rune(p)
	if len(r) > promptPreviewChars {
		r = r[:promptPreviewChars]
	}
	return string(r) + "..."
}
