package model

import "strings"

// Quality is the human-assigned label of a benchmark response.
type Quality string

const (
	QualityGood    Quality = "good"
	QualityNeutral Quality = "neutral"
	QualityBad     Quality = "bad"
	QualityUnknown Quality = "unknown"
)

// Display renders a quality label for reports, e.g. "GOOD (excellent)".
func (q Quality) Display(mark string) string {
	if q == "" {
		q = QualityUnknown
	}
	out := strings.ToUpper(string(q))
	if mark != "" {
		out += " (" + mark + ")"
	}
	return out
}

// BenchmarkRecord is one row of a benchmark sheet.
type BenchmarkRecord struct {
	RowID       int     `json:"row_id"`
	Prompt      string  `json:"prompt"`
	Response    string  `json:"response"`
	Sources     string  `json:"sources"`
	Quality     Quality `json:"quality"`
	QualityMark string  `json:"quality_mark,omitempty"`
}

// Benchmark maps 1-based data row positions to benchmark records.
type Benchmark map[int]BenchmarkRecord

// Lookup returns the record for rowID, or an empty record with unknown
// quality when the benchmark has no such row.
func (b Benchmark) Lookup(rowID int) BenchmarkRecord {
	if rec, ok := b[rowID]; ok {
		return rec
	}
	return BenchmarkRecord{RowID: rowID, Quality: QualityUnknown}
}

// QualityCounts tallies records by quality label.
func (b Benchmark) QualityCounts() map[Quality]int {
	counts := map[Quality]int{
		QualityGood:    0,
		QualityBad:     0,
		QualityNeutral: 0,
		QualityUnknown: 0,
	}
	for _, rec := range b {
		counts[rec.Quality]++
	}
	return counts
}
