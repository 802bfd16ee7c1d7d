package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, SeverityHigh, SeverityFor(QualityGood))
	assert.Equal(t, SeverityMedium, SeverityFor(QualityNeutral))
	assert.Equal(t, SeverityMedium, SeverityFor(QualityUnknown))
}

func TestQualityDisplay(t *testing.T) {
	tests := []struct {
		quality Quality
		mark    string
		want    string
	}{
		{QualityGood, "Excellent", "GOOD (Excellent)"},
		{QualityNeutral, "", "NEUTRAL"},
		{"", "", "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.quality.Display(tt.mark))
	}

	rec := DegradedRecord{OldQuality: QualityBad, OldQualityMark: "fail"}
	assert.Equal(t, "BAD (fail)", rec.QualityDisplay())
}

func TestBenchmarkLookup(t *testing.T) {
	b := Benchmark{
		2: {RowID: 2, Prompt: "p", Response: "r", Quality: QualityGood},
	}

	assert.Equal(t, "r", b.Lookup(2).Response)

	missing := b.Lookup(7)
	assert.Equal(t, 7, missing.RowID)
	assert.Empty(t, missing.Response)
	assert.Equal(t, QualityUnknown, missing.Quality)
}

func TestBenchmarkQualityCounts(t *testing.T) {
	b := Benchmark{
		1: {Quality: QualityGood},
		2: {Quality: QualityGood},
		3: {Quality: QualityUnknown},
	}
	counts := b.QualityCounts()
	assert.Equal(t, 2, counts[QualityGood])
	assert.Equal(t, 0, counts[QualityBad])
	assert.Equal(t, 1, counts[QualityUnknown])
}

func TestRunSummaryRecords(t *testing.T) {
	s := &RunSummary{
		TotalProcessed:  5,
		TotalSuccessful: 3,
		TotalDegraded:   3,
		Groups: []CategoryGroup{
			{Category: "A", Records: []DegradedRecord{{RowID: 1}, {RowID: 4}}},
			{Category: "B", Records: []DegradedRecord{{RowID: 2}}},
		},
	}
	recs := s.Records()
	assert.Len(t, recs, 3)
	assert.Equal(t, 2, recs[2].RowID)
	assert.Equal(t, 2, s.TotalFailed())
}

func TestAnswerResult(t *testing.T) {
	a := AnswerResult{Status: AnswerSuccess, Sources: []string{"https://a", "https://b"}}
	assert.True(t, a.OK())
	assert.Equal(t, "https://a\nhttps://b", a.JoinedSources())
	assert.False(t, AnswerResult{Status: AnswerError}.OK())
}
