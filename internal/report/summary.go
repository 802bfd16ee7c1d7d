// Package report aggregates degraded records into a run summary and writes
// the degraded-responses workbook.
package report

import (
	"github.com/sells-group/mentor-regress/internal/model"
)

// PreviewSize bounds the number of issues detailed in notifications.
const PreviewSize = 5

// CleanMessage is the empty-state message of a run with no degradations.
const CleanMessage = "No degraded responses found in this run."

// Summarize groups records by category in first-seen order, keeping
// detection order within each category, and tallies severities. It always
// returns a well-formed summary; with no records it is marked Clean.
func Summarize(records []model.DegradedRecord) *model.RunSummary {
	s := &model.RunSummary{
		Groups:  []model.CategoryGroup{},
		Preview: []model.DegradedRecord{},
	}

	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.Category]
		if !ok {
			i = len(s.Groups)
			index[rec.Category] = i
			s.Groups = append(s.Groups, model.CategoryGroup{Category: rec.Category})
		}
		s.Groups[i].Records = append(s.Groups[i].Records, rec)

		switch rec.Severity {
		case model.SeverityHigh:
			s.Counts.High++
		case model.SeverityMedium:
			s.Counts.Medium++
		}
	}

	s.TotalDegraded = len(records)
	if s.TotalDegraded == 0 {
		s.Clean = true
		s.Message = CleanMessage
		return s
	}

	n := min(PreviewSize, len(records))
	s.Preview = append(s.Preview, records[:n]...)
	s.Remaining = len(records) - n
	return s
}

// SummarizeRun builds the summary of a whole sweep from per-category
// results. Every attempted category is listed, including failed ones.
func SummarizeRun(results []model.CategoryResult) *model.RunSummary {
	var all []model.DegradedRecord
	for _, r := range results {
		all = append(all, r.Degraded...)
	}

	s := Summarize(all)
	s.Categories = make([]model.CategoryResult, 0, len(results))
	for _, r := range results {
		s.TotalProcessed += r.Processed
		s.TotalSuccessful += r.Successful
		s.Categories = append(s.Categories, r)
	}
	return s
}
