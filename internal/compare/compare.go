// Package compare replays one mentor's prompts against the live API and
// collects answers that regressed against the benchmark.
package compare

import (
	"context"
	"strings"

	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/mentor-regress/internal/benchmark"
	"github.com/sells-group/mentor-regress/internal/classify"
	"github.com/sells-group/mentor-regress/internal/model"
	"github.com/sells-group/mentor-regress/internal/sheet"
)

// FailedFetchReason is reported when a fetch fails where the benchmark had
// a usable answer.
const FailedFetchReason = "API call failed, old response was successful"

const logPromptChars = 60

// Fetcher asks a mentor one question.
type Fetcher interface {
	Fetch(ctx context.Context, prompt string, mentor model.Mentor) model.AnswerResult
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithRowLimit stops each category after n processed rows. Zero means all.
func WithRowLimit(n int) Option {
	return func(c *Comparator) {
		if n > 0 {
			c.limit = n
		}
	}
}

// Comparator runs the per-row fetch, write-back and classification loop.
type Comparator struct {
	fetcher Fetcher
	limit   int
}

// New creates a Comparator backed by fetcher.
func New(fetcher Fetcher, opts ...Option) *Comparator {
	c := &Comparator{fetcher: fetcher}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes every data row of out with a non-blank prompt. Each new
// answer (or fetch diagnostic) is written into out exactly once, and the
// row is classified against the benchmark record with the same row id.
// Rows are joined by position only, so inserting or deleting a row in
// either workbook misaligns every later comparison.
func (c *Comparator) Run(ctx context.Context, mentor model.Mentor, bench model.Benchmark, out *xlsx.Sheet) model.CategoryResult {
	result := model.CategoryResult{Category: mentor.Name}
	log := zap.L().With(zap.String("mentor", mentor.Name))

	if len(out.Rows) == 0 {
		log.Warn("compare: output sheet is empty")
		return result
	}
	cols := benchmark.DiscoverColumns(sheet.RowStrings(out.Rows[0]))

	for rowID := 1; rowID < len(out.Rows); rowID++ {
		if c.limit > 0 && result.Processed >= c.limit {
			log.Info("compare: row limit reached", zap.Int("limit", c.limit))
			break
		}
		if err := ctx.Err(); err != nil {
			log.Warn("compare: interrupted", zap.Error(err))
			result.Error = err.Error()
			break
		}

		prompt := sheet.CellAt(sheet.RowStrings(out.Rows[rowID]), cols.Prompt)
		if strings.TrimSpace(prompt) == "" {
			continue
		}
		result.Processed++

		old := bench.Lookup(rowID)
		rowLog := log.With(zap.Int("row_id", rowID), zap.String("prompt", truncate(prompt, logPromptChars)))

		answer := c.fetcher.Fetch(ctx, prompt, mentor)
		if !answer.OK() {
			sheet.SetCell(out, rowID, cols.Response, answer.Text)
			sheet.SetCell(out, rowID, cols.Sources, "")
			rowLog.Warn("compare: fetch failed", zap.String("status", answer.Text))

			if failedFetchDegrades(old) {
				rec := newRecord(mentor.Name, rowID, prompt, old)
				rec.NewResponse = answer.Text
				rec.Reason = FailedFetchReason
				rec.Severity = model.SeverityFor(old.Quality)
				result.Degraded = append(result.Degraded, rec)
				rowLog.Warn("compare: degradation detected",
					zap.String("severity", string(rec.Severity)),
					zap.String("reason", rec.Reason),
				)
			}
			continue
		}

		result.Successful++
		newSources := answer.JoinedSources()
		sheet.SetCell(out, rowID, cols.Response, answer.Text)
		sheet.SetCell(out, rowID, cols.Sources, newSources)

		verdict := classify.Classify(classify.Input{
			Old:        old.Response,
			New:        answer.Text,
			Prompt:     prompt,
			OldQuality: old.Quality,
		})
		if !verdict.Degraded {
			rowLog.Debug("compare: quality maintained", zap.Int("chars", len([]rune(answer.Text))))
			continue
		}

		rec := newRecord(mentor.Name, rowID, prompt, old)
		rec.NewResponse = answer.Text
		rec.NewSources = newSources
		rec.Reason = verdict.Reason
		rec.Severity = verdict.Severity
		result.Degraded = append(result.Degraded, rec)
		rowLog.Warn("compare: degradation detected",
			zap.String("severity", string(rec.Severity)),
			zap.String("reason", rec.Reason),
		)
	}

	log.Info("compare: category complete",
		zap.Int("processed", result.Processed),
		zap.Int("successful", result.Successful),
		zap.Int("degraded", len(result.Degraded)),
	)
	return result
}

// failedFetchDegrades reports whether a failed fetch counts as a regression:
// the benchmark answered, its answer was not itself an error, and it was not
// labelled bad.
func failedFetchDegrades(old model.BenchmarkRecord) bool {
	return old.Response != "" &&
		!strings.Contains(strings.ToLower(old.Response), "error") &&
		old.Quality != model.QualityBad
}

func newRecord(category string, rowID int, prompt string, old model.BenchmarkRecord) model.DegradedRecord {
	return model.DegradedRecord{
		RowID:          rowID,
		Category:       category,
		Prompt:         prompt,
		OldResponse:    old.Response,
		OldSources:     old.Sources,
		OldQuality:     old.Quality,
		OldQualityMark: old.QualityMark,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
