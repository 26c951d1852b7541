// Package runner wires loading, simulation, analysis, reporting and
// persistence into a single run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/replay/internal/alert"
	"github.com/newthinker/replay/internal/analytics"
	"github.com/newthinker/replay/internal/backtest"
	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/feed"
	"github.com/newthinker/replay/internal/metrics"
	"github.com/newthinker/replay/internal/notifier"
	"github.com/newthinker/replay/internal/report"
	"github.com/newthinker/replay/internal/storage/archive"
	"github.com/newthinker/replay/internal/storage/runs"
	"github.com/newthinker/replay/internal/strategy"
	"go.uber.org/zap"
)

// History records finished runs
type History interface {
	Save(ctx context.Context, r runs.Record) error
}

// Request describes one run
type Request struct {
	Strategy string
	Params   strategy.Params

	// Bars, when set, are used instead of loading DataPath
	Bars     []core.OHLCV
	DataPath string
	Symbol   string
	Interval string

	Engine    backtest.Config
	Analytics analytics.Config
	Formats   []report.Format
	Tables    bool
}

// Outcome is the result of a successful run
type Outcome struct {
	RunID     string
	Document  *report.Document
	Artifacts []report.Artifact
	Locations []string // where artifacts were archived
	Alerts    []alert.Fired
}

// Runner executes requests. Archive, history, metrics and notifiers are
// optional.
type Runner struct {
	strategies *strategy.Registry
	logger     *zap.Logger

	store     archive.Store
	history   History
	metrics   *metrics.Registry
	notifiers *notifier.Registry
	alerts    []alert.Rule

	newID func() string
	now   func() time.Time
}

// New creates a runner over the given strategy registry
func New(strategies *strategy.Registry, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		strategies: strategies,
		logger:     logger,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// SetArchive stores artifacts of every run in s
func (r *Runner) SetArchive(s archive.Store) {
	r.store = s
}

// SetHistory records every run in h
func (r *Runner) SetHistory(h History) {
	r.history = h
}

// SetMetrics records run metrics in m
func (r *Runner) SetMetrics(m *metrics.Registry) {
	r.metrics = m
}

// SetNotifiers announces every finished run through n
func (r *Runner) SetNotifiers(n *notifier.Registry) {
	r.notifiers = n
}

// SetAlerts checks every successful run against rules
func (r *Runner) SetAlerts(rules []alert.Rule) {
	r.alerts = rules
}

// Run executes req end to end. A failed run is still recorded in history
// and metrics before the error is returned.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	runID := r.newID()
	started := r.now()
	log := r.logger.With(zap.String("run_id", runID), zap.String("strategy", req.Strategy))

	out, err := r.run(ctx, runID, req, log)
	elapsed := r.now().Sub(started)

	if err != nil {
		log.Error("run failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		if r.metrics != nil {
			r.metrics.RecordFailure(req.Strategy, elapsed)
		}
		r.finish(ctx, log, runs.Record{
			ID:        runID,
			Strategy:  req.Strategy,
			Params:    req.Params,
			Symbol:    req.Symbol,
			Source:    req.DataPath,
			StartedAt: started.UTC(),
			Duration:  elapsed,
			Status:    runs.StatusFailed,
			Error:     err.Error(),
		}, nil)
		return nil, err
	}

	doc := out.Document
	if r.metrics != nil {
		r.metrics.RecordRun(outcomeMetrics(doc, elapsed))
	}
	rec := historyRecord(doc, started, elapsed)
	if len(out.Locations) > 0 {
		rec.ReportLocation = out.Locations[0]
	}
	out.Alerts = alert.Check(r.alerts, runMetrics(rec))
	for _, f := range out.Alerts {
		log.Warn("alert fired", zap.String("alert", f.Rule.Name), zap.String("expr", f.Rule.Expr), zap.Float64("value", f.Value))
	}
	r.finish(ctx, log, rec, out.Alerts)

	log.Info("run complete",
		zap.String("symbol", doc.Result.Symbol),
		zap.Int("bars", doc.Result.Bars),
		zap.Int("trades", len(doc.Result.Trades)),
		zap.Float64("final_value", doc.FinalValue()),
		zap.Float64("return_pct", doc.Analytics.TotalReturnPct),
		zap.Float64("sharpe", doc.Analytics.Sharpe),
		zap.Duration("elapsed", elapsed),
	)
	return out, nil
}

func (r *Runner) run(ctx context.Context, runID string, req Request, log *zap.Logger) (*Outcome, error) {
	strat, err := r.strategies.Build(req.Strategy, req.Params)
	if err != nil {
		return nil, err
	}

	bars, source, err := r.load(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(bars) < strat.Warmup() {
		log.Warn("series shorter than strategy warmup, expect no trades",
			zap.Int("bars", len(bars)), zap.Int("warmup", strat.Warmup()))
	}

	engine, err := backtest.New(req.Engine)
	if err != nil {
		return nil, err
	}
	analyzer, err := analytics.New(req.Analytics)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := engine.Run(bars, strat)
	if err != nil {
		return nil, err
	}
	log.Debug("simulation finished", zap.Int("trades", len(res.Trades)))

	summary, ok := engine.Summary()
	doc := report.NewDocument(runID, strat.Name(), req.Params, source, res, summary, ok, analyzer.Analyze(res.Equity))

	artifacts, err := report.Artifacts(doc, req.Formats, req.Tables)
	if err != nil {
		return nil, err
	}
	out := &Outcome{RunID: runID, Document: doc, Artifacts: artifacts}

	if r.store != nil {
		locations, err := r.publish(ctx, runID, artifacts, log)
		if err != nil {
			return nil, err
		}
		out.Locations = locations
	}
	return out, nil
}

func (r *Runner) load(ctx context.Context, req Request) ([]core.OHLCV, string, error) {
	if req.Bars != nil {
		return req.Bars, "memory", nil
	}
	if req.DataPath == "" {
		return nil, "", core.WrapError(core.ErrConfigMissing, errors.New("no data file given"))
	}
	src, err := feed.Open(req.DataPath, feed.Options{Symbol: req.Symbol, Interval: req.Interval}, r.logger)
	if err != nil {
		return nil, "", err
	}
	bars, err := src.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	return bars, src.Name(), nil
}

func (r *Runner) publish(ctx context.Context, runID string, artifacts []report.Artifact, log *zap.Logger) ([]string, error) {
	locations := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		key := archive.RunKey(runID, a.Name)
		err := r.store.Put(ctx, key, a.Data, a.ContentType)
		if r.metrics != nil {
			r.metrics.RecordArchiveWrite(err)
		}
		if err != nil {
			return nil, fmt.Errorf("archiving %s: %w", a.Name, err)
		}
		locations = append(locations, r.store.Location(key))
	}
	log.Info("artifacts archived", zap.Int("count", len(locations)), zap.Strings("locations", locations))
	return locations, nil
}

// finish saves rec to history and announces it. Failures are logged, the
// run result stands.
func (r *Runner) finish(ctx context.Context, log *zap.Logger, rec runs.Record, fired []alert.Fired) {
	ctx = context.WithoutCancel(ctx)
	if r.history != nil {
		if err := r.history.Save(ctx, rec); err != nil {
			log.Warn("saving run history failed", zap.Error(err))
		}
	}
	if r.notifiers != nil && r.notifiers.Len() > 0 {
		for name, err := range r.notifiers.NotifyAll(ctx, event(rec, fired)) {
			log.Warn("notification failed", zap.String("notifier", name), zap.Error(err))
		}
	}
}

func event(rec runs.Record, fired []alert.Fired) notifier.Event {
	ev := notifier.Event{
		RunID:          rec.ID,
		Strategy:       rec.Strategy,
		Symbol:         rec.Symbol,
		Source:         rec.Source,
		Status:         string(rec.Status),
		Error:          rec.Error,
		Bars:           rec.Bars,
		Trades:         rec.Trades,
		FinalValue:     rec.FinalValue,
		TotalReturnPct: rec.TotalReturnPct,
		Sharpe:         rec.Sharpe,
		MaxDrawdownPct: rec.MaxDrawdownPct,
		ReportLocation: rec.ReportLocation,
		FinishedAt:     rec.StartedAt.Add(rec.Duration),
	}
	for _, f := range fired {
		ev.Alerts = append(ev.Alerts, f.String())
	}
	return ev
}

// runMetrics names the values alert rules can refer to
func runMetrics(rec runs.Record) map[string]float64 {
	return map[string]float64{
		"bars":             float64(rec.Bars),
		"trades":           float64(rec.Trades),
		"final_value":      rec.FinalValue,
		"total_return_pct": rec.TotalReturnPct,
		"win_rate":         rec.WinRate,
		"sharpe":           rec.Sharpe,
		"sortino":          rec.Sortino,
		"max_drawdown_pct": rec.MaxDrawdownPct,
	}
}

func countSides(trades []backtest.Trade) (buys, sells int) {
	for _, t := range trades {
		if t.Side == backtest.SideBuy {
			buys++
		} else {
			sells++
		}
	}
	return buys, sells
}

func outcomeMetrics(doc *report.Document, elapsed time.Duration) metrics.RunOutcome {
	res := doc.Result
	buys, sells := countSides(res.Trades)
	signals := make(map[string]int, len(res.Signals))
	for action, n := range res.Signals {
		signals[string(action)] = n
	}
	return metrics.RunOutcome{
		Strategy:       doc.Strategy,
		Symbol:         res.Symbol,
		Duration:       elapsed,
		Bars:           res.Bars,
		Buys:           buys,
		Sells:          sells,
		Signals:        signals,
		FinalEquity:    doc.FinalValue(),
		TotalReturnPct: doc.Analytics.TotalReturnPct,
		Sharpe:         doc.Analytics.Sharpe,
		MaxDrawdownPct: doc.Analytics.MaxDrawdown.Pct,
	}
}

func historyRecord(doc *report.Document, started time.Time, elapsed time.Duration) runs.Record {
	res := doc.Result
	rec := runs.Record{
		ID:             doc.RunID,
		Strategy:       doc.Strategy,
		Params:         doc.Params,
		Symbol:         res.Symbol,
		Source:         doc.Source,
		StartedAt:      started.UTC(),
		Duration:       elapsed,
		Status:         runs.StatusOK,
		Bars:           res.Bars,
		Trades:         len(res.Trades),
		InitialBalance: res.Config.InitialBalance,
		FinalValue:     doc.FinalValue(),
		TotalReturnPct: doc.Analytics.TotalReturnPct,
		Sharpe:         doc.Analytics.Sharpe,
		Sortino:        doc.Analytics.Sortino,
		MaxDrawdownPct: doc.Analytics.MaxDrawdown.Pct,
	}
	if doc.Summary != nil {
		rec.WinRate = doc.Summary.WinRate
	}
	return rec
}
