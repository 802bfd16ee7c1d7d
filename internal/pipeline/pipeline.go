// Package pipeline runs a full regression sweep: every configured mentor is
// compared against its benchmark sheet, then the degraded report is written,
// archived, announced and recorded.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mentor-regress/internal/archive"
	"github.com/sells-group/mentor-regress/internal/benchmark"
	"github.com/sells-group/mentor-regress/internal/compare"
	"github.com/sells-group/mentor-regress/internal/config"
	"github.com/sells-group/mentor-regress/internal/model"
	"github.com/sells-group/mentor-regress/internal/notify"
	"github.com/sells-group/mentor-regress/internal/report"
	"github.com/sells-group/mentor-regress/internal/sheet"
	"github.com/sells-group/mentor-regress/internal/store"
)

// ErrNoMentors is returned when there is nothing to sweep.
var ErrNoMentors = eris.New("pipeline: no mentors configured")

// Pipeline orchestrates one sweep over all mentors.
type Pipeline struct {
	cfg      *config.Config
	fetcher  compare.Fetcher
	store    store.Store
	notifier notify.Notifier
	uploader archive.Uploader
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore records finished runs in st.
func WithStore(st store.Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithNotifier announces degraded runs through n.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithUploader archives the degraded report through u.
func WithUploader(u archive.Uploader) Option {
	return func(p *Pipeline) { p.uploader = u }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline. Store, notifier and uploader are optional.
func New(cfg *config.Config, fetcher compare.Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run sweeps every mentor in order. A failing mentor is reported in the
// summary and the sweep moves on; the only error returned is ErrNoMentors.
func (p *Pipeline) Run(ctx context.Context) (*model.RunSummary, error) {
	mentors := p.cfg.Mentors
	if len(mentors) == 0 {
		return nil, ErrNoMentors
	}

	log := zap.L().With(zap.Int("mentors", len(mentors)))
	log.Info("pipeline: starting sweep",
		zap.String("benchmark", p.cfg.Files.Benchmark),
		zap.String("output", p.cfg.Files.Output),
	)
	started := p.now()

	loader := benchmark.NewLoader(p.cfg.Files.Benchmark)
	cmp := compare.New(p.fetcher, compare.WithRowLimit(p.cfg.Compare.RowLimit))

	wb, wbErr := sheet.OpenFirst(p.cfg.Files.Output, p.cfg.Files.Benchmark)
	if wbErr != nil {
		log.Error("pipeline: cannot open output workbook", zap.Error(wbErr))
	}

	results := make([]model.CategoryResult, 0, len(mentors))
	for _, m := range mentors {
		if err := ctx.Err(); err != nil {
			results = append(results, model.CategoryResult{Category: m.Name, Error: err.Error()})
			continue
		}
		results = append(results, p.runCategory(ctx, m, loader, cmp, wb, wbErr))
	}

	summary := report.SummarizeRun(results)
	summary.StartedAt = started
	summary.FinishedAt = p.now()

	// Side effects below must not be cut short by an interrupted sweep.
	sideCtx := context.WithoutCancel(ctx)
	p.publish(sideCtx, summary)

	if p.store != nil {
		if _, err := p.store.SaveRun(sideCtx, summary); err != nil {
			log.Warn("pipeline: failed to save run", zap.Error(err))
		}
	}

	log.Info("pipeline: sweep complete",
		zap.String("run_id", summary.RunID),
		zap.Int("processed", summary.TotalProcessed),
		zap.Int("successful", summary.TotalSuccessful),
		zap.Int("degraded", summary.TotalDegraded),
		zap.Int("high", summary.Counts.High),
		zap.Int("medium", summary.Counts.Medium),
		zap.Duration("elapsed", summary.FinishedAt.Sub(started)),
	)
	return summary, nil
}

func (p *Pipeline) runCategory(
	ctx context.Context,
	m model.Mentor,
	loader *benchmark.Loader,
	cmp *compare.Comparator,
	wb *sheet.Workbook,
	wbErr error,
) (res model.CategoryResult) {
	log := zap.L().With(zap.String("mentor", m.Name), zap.Int("sheet", m.Sheet))
	res.Category = m.Name

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: category aborted", zap.Any("panic", r))
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	if wbErr != nil {
		res.Error = wbErr.Error()
		return res
	}

	bench, err := loader.Load(m.Sheet)
	if err != nil {
		log.Warn("pipeline: benchmark unreadable, comparing against an empty baseline", zap.Error(err))
	}

	out, err := wb.SheetAt(m.Sheet)
	if err != nil {
		log.Error("pipeline: output sheet missing", zap.Error(err))
		res.Error = err.Error()
		return res
	}

	log.Info("pipeline: processing category", zap.Int("benchmark_records", len(bench)))
	res = cmp.Run(ctx, m, bench, out)

	if err := wb.Save(p.cfg.Files.Output); err != nil {
		log.Error("pipeline: failed to save output workbook", zap.Error(err))
		if res.Error == "" {
			res.Error = err.Error()
		}
	}

	log.Info("pipeline: category complete",
		zap.Int("processed", res.Processed),
		zap.Int("successful", res.Successful),
		zap.Int("degraded", len(res.Degraded)),
	)
	return res
}

// publish writes the degraded report, archives it when there is anything
// to review and sends the alert.
func (p *Pipeline) publish(ctx context.Context, summary *model.RunSummary) {
	path := p.cfg.Files.DegradedReport
	if err := report.WriteWorkbook(summary, path); err != nil {
		zap.L().Error("pipeline: failed to write degraded report", zap.Error(err))
	} else {
		summary.ReportPath = path
	}

	if summary.TotalDegraded == 0 {
		return
	}
	if summary.ReportPath != "" {
		summary.ArchiveURL = archive.Archive(ctx, p.uploader, path, summary.FinishedAt)
	}
	notify.Send(ctx, p.notifier, notify.NewAlert(summary, summary.ReportPath, summary.FinishedAt))
}
