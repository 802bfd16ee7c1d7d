package model

// Severity is the triage tier of a degradation.
type Severity string

const (
	SeverityNone   Severity = "NONE"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// SeverityFor returns HIGH when the benchmark was labelled good and MEDIUM
// otherwise.
func SeverityFor(q Quality) Severity {
	if q == QualityGood {
		return SeverityHigh
	}
	return SeverityMedium
}

// Verdict is the classifier's decision for one old/new comparison.
type Verdict struct {
	Degraded bool     `json:"degraded" yaml:"degraded"`
	Reason   string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Severity Severity `json:"severity" yaml:"severity"`
}

// NotDegraded is the zero-finding verdict.
var NotDegraded = Verdict{Severity: SeverityNone}

// DegradedRecord is a flagged row with provenance for human review.
type DegradedRecord struct {
	RowID          int      `json:"row_id" yaml:"row_id"`
	Category       string   `json:"category" yaml:"category"`
	Prompt         string   `json:"prompt" yaml:"prompt"`
	OldResponse    string   `json:"old_response" yaml:"old_response"`
	NewResponse    string   `json:"new_response" yaml:"new_response"`
	OldSources     string   `json:"old_sources" yaml:"old_sources"`
	NewSources     string   `json:"new_sources" yaml:"new_sources"`
	Reason         string   `json:"reason" yaml:"reason"`
	Severity       Severity `json:"severity" yaml:"severity"`
	OldQuality     Quality  `json:"old_quality" yaml:"old_quality"`
	OldQualityMark string   `json:"old_quality_mark,omitempty" yaml:"old_quality_mark,omitempty"`
}

// QualityDisplay renders the benchmark label for reports.
func (d DegradedRecord) QualityDisplay() string {
	return d.OldQuality.Display(d.OldQualityMark)
}
