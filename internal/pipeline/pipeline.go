package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"StockInsight/internal/advisor"
	"StockInsight/internal/collector"
	"StockInsight/internal/config"
	"StockInsight/internal/model"
	"StockInsight/internal/notifier"
	"StockInsight/internal/recorder"
	"StockInsight/internal/report"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Integration names used in outcomes.
const (
	StepNews     = "news"
	StepCharts   = "charts"
	StepHTML     = "html"
	StepSheets   = "sheets"
	StepRecorder = "recorder"
	StepNotify   = "notify"
)

// NewsFetcher gathers headlines per symbol.
type NewsFetcher interface {
	ForSymbols(ctx context.Context, symbols []string, company func(string) string) map[string][]model.NewsItem
}

// Advisor turns the prompt input into recommendations.
type Advisor interface {
	Advise(ctx context.Context, in advisor.PromptInput) (*model.Advice, error)
}

// Charter draws one chart per bar series.
type Charter interface {
	Plot(date string, series *model.BarSeries) (string, error)
}

// Exporter appends the run to an external sheet.
type Exporter interface {
	Export(ctx context.Context, date string, records []*model.FeatureRecord, advice *model.Advice) (int, error)
}

// Notifier delivers the digest.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Runner executes one daily run. Optional collaborators may be nil; their steps are
// then reported as skipped.
type Runner struct {
	Cfg       *config.Config
	Collector *collector.Collector
	Advisor   Advisor
	Writer    *report.Writer
	News      NewsFetcher
	Charts    Charter
	Exporter  Exporter
	// ExportDisabled explains why Exporter is nil.
	ExportDisabled string
	Recorder       recorder.Recorder
	Notifier       Notifier

	runMu      sync.Mutex
	mu         sync.Mutex
	lastDigest string
}

// Result describes a finished run.
type Result struct {
	RunID      string
	Date       string
	Status     model.RunStatus
	ReportPath string
	Records    []*model.FeatureRecord
	Skipped    []string
	Advice     *model.Advice
	Digest     string
	Outcomes   []model.Outcome
}

// Failed returns the outcomes of optional steps that ran and failed.
func (r *Result) Failed() []model.Outcome {
	var out []model.Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// LastDigest returns the digest of the most recent completed run.
func (r *Runner) LastDigest() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDigest
}

func (r *Runner) setDigest(d string) {
	r.mu.Lock()
	r.lastDigest = d
	r.mu.Unlock()
}

func (r *Runner) groups() []collector.Group {
	return []collector.Group{
		{Key: "indices", Title: "Indices", Symbols: r.Cfg.Indices},
		{Key: "commodities", Title: "Commodities", Symbols: r.Cfg.Commodities},
		{Key: "fx", Title: "FX", Symbols: r.Cfg.FX},
	}
}

// Run performs one run for the trading day containing now. Only a failing model call,
// an unusable model reply or a failed report write return an error; every optional
// step is reported in Result.Outcomes.
func (r *Runner) Run(ctx context.Context, now time.Time) (*Result, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	started := time.Now()
	local := now.In(r.Cfg.Location())
	res := &Result{RunID: uuid.NewString(), Date: local.Format("2006-01-02")}
	logger := log.With().Str("run_id", res.RunID).Str("date", res.Date).Logger()

	if r.Cfg.SkipIfWeekend && isWeekend(local) {
		logger.Info().Str("weekday", local.Weekday().String()).Msg("weekend, run skipped")
		res.Status = model.RunSkipped
		res.Outcomes = append(res.Outcomes, r.record(res, started))
		return res, nil
	}

	groups := r.groups()
	overview := r.Collector.Overview(ctx, groups)
	watch := r.Collector.Watchlist(ctx, r.Cfg.Tickers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Records = watch.Records
	res.Skipped = watch.Skipped
	logger.Info().Int("records", len(watch.Records)).Strs("skipped", watch.Skipped).Msg("market data collected")

	if len(res.Records) == 0 {
		return r.degraded(ctx, res, started)
	}

	newsMap := r.fetchNews(ctx, res)

	prompt := advisor.PromptInput{
		Date:          res.Date,
		Language:      r.Cfg.Report.Language,
		StopLossPct:   r.Cfg.Risk.DefaultStopLossPct,
		TakeProfitPct: r.Cfg.Risk.DefaultTakeProfitPct,
		Records:       res.Records,
		News:          newsMap,
	}
	for _, g := range overview {
		prompt.Overview = append(prompt.Overview, advisor.OverviewGroup{Key: g.Group.Key, Records: g.Records})
	}
	advice, err := r.Advisor.Advise(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model advice: %w", err)
	}
	res.Advice = advice

	charts := r.plotCharts(res, watch.Series)

	in := report.Input{
		Date:    res.Date,
		Model:   r.Cfg.Model,
		Records: res.Records,
		Advice:  advice,
		News:    newsMap,
		Charts:  charts,
		Skipped: res.Skipped,
	}
	for _, g := range overview {
		in.Overview = append(in.Overview, report.Group{Title: g.Group.Title, Records: g.Records})
	}
	md := report.Render(in)
	path, err := r.Writer.Write(res.Date, md)
	if err != nil {
		return nil, err
	}
	res.ReportPath = path
	res.Status = model.RunOK
	logger.Info().Str("path", path).Msg("report written")

	if r.Cfg.Report.HTML {
		if _, err := r.Writer.WriteHTML(res.Date, md); err != nil {
			res.Outcomes = append(res.Outcomes, model.Failed(StepHTML, err))
		} else {
			res.Outcomes = append(res.Outcomes, model.Succeeded(StepHTML))
		}
	} else {
		res.Outcomes = append(res.Outcomes, model.Skipped(StepHTML, "disabled"))
	}

	res.Outcomes = append(res.Outcomes, r.export(ctx, res))
	res.Outcomes = append(res.Outcomes, r.record(res, started))

	res.Digest = notifier.FormatDigest(res.Date, res.Records, advice, res.Skipped)
	r.setDigest(res.Digest)
	res.Outcomes = append(res.Outcomes, r.notify(ctx, res.Digest))

	logOutcomes(logger, res.Outcomes)
	return res, nil
}

// degraded writes the diagnostic report used when no symbol had data.
func (r *Runner) degraded(ctx context.Context, res *Result, started time.Time) (*Result, error) {
	log.Warn().Str("date", res.Date).Msg("no symbol produced usable data, writing diagnostic report")
	path, err := r.Writer.Write(res.Date, report.RenderDiagnostic(res.Date, res.Skipped))
	if err != nil {
		return nil, err
	}
	res.ReportPath = path
	res.Status = model.RunDegraded
	res.Outcomes = append(res.Outcomes, r.record(res, started))
	res.Digest = notifier.FormatDiagnostic(res.Date, res.Skipped)
	r.setDigest(res.Digest)
	res.Outcomes = append(res.Outcomes, r.notify(ctx, res.Digest))
	logOutcomes(log.Logger, res.Outcomes)
	return res, nil
}

func (r *Runner) fetchNews(ctx context.Context, res *Result) map[string][]model.NewsItem {
	if r.News == nil || !r.Cfg.News.Enable {
		res.Outcomes = append(res.Outcomes, model.Skipped(StepNews, "disabled"))
		return nil
	}
	symbols := make([]string, len(res.Records))
	for i, f := range res.Records {
		symbols[i] = f.Requested
	}
	newsMap := r.News.ForSymbols(ctx, symbols, r.Cfg.CompanyName)
	if len(newsMap) == 0 {
		res.Outcomes = append(res.Outcomes, model.Failed(StepNews, errors.New("no headlines for any symbol")))
		return newsMap
	}
	res.Outcomes = append(res.Outcomes, model.Succeeded(StepNews))
	return newsMap
}

// plotCharts draws one chart per record and returns report-relative image paths.
func (r *Runner) plotCharts(res *Result, series map[string]*model.BarSeries) map[string]string {
	if r.Charts == nil || !r.Cfg.Charts.Enable {
		res.Outcomes = append(res.Outcomes, model.Skipped(StepCharts, "disabled"))
		return nil
	}
	out := make(map[string]string)
	var errs []error
	for _, f := range res.Records {
		s, ok := series[f.Requested]
		if !ok {
			continue
		}
		path, err := r.Charts.Plot(res.Date, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[f.Requested] = filepath.Base(path)
	}
	if err := errors.Join(errs...); err != nil {
		res.Outcomes = append(res.Outcomes, model.Failed(StepCharts, err))
	} else {
		res.Outcomes = append(res.Outcomes, model.Succeeded(StepCharts))
	}
	return out
}

func (r *Runner) export(ctx context.Context, res *Result) model.Outcome {
	if r.Exporter == nil {
		reason := r.ExportDisabled
		if reason == "" {
			reason = "not configured"
		}
		return model.Skipped(StepSheets, reason)
	}
	n, err := r.Exporter.Export(ctx, res.Date, res.Records, res.Advice)
	if err != nil {
		return model.Failed(StepSheets, err)
	}
	log.Info().Int("rows", n).Msg("exported to sheet")
	return model.Succeeded(StepSheets)
}

func (r *Runner) record(res *Result, started time.Time) model.Outcome {
	if r.Recorder == nil {
		return model.Skipped(StepRecorder, "not configured")
	}
	err := r.Recorder.RecordRun(&recorder.RunRecord{
		ID:         res.RunID,
		RunDate:    res.Date,
		Status:     res.Status,
		Model:      r.Cfg.Model,
		Records:    res.Records,
		Advice:     res.Advice,
		Skipped:    res.Skipped,
		ReportPath: res.ReportPath,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	if err != nil {
		return model.Failed(StepRecorder, err)
	}
	return model.Succeeded(StepRecorder)
}

func (r *Runner) notify(ctx context.Context, text string) model.Outcome {
	if r.Notifier == nil {
		return model.Skipped(StepNotify, "telegram not configured")
	}
	if err := r.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		return model.Failed(StepNotify, err)
	}
	return model.Succeeded(StepNotify)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
