package analytics

import (
	"fmt"

	"github.com/newthinker/replay/internal/backtest"
	"github.com/newthinker/replay/internal/core"
)

// Config controls the analyzer
type Config struct {
	RiskFreeRate         float64       `json:"risk_free_rate" yaml:"risk_free_rate"` // annual
	PeriodsPerYear       int           `json:"periods_per_year" yaml:"periods_per_year"`
	DrawdownThresholdPct float64       `json:"drawdown_threshold_pct" yaml:"drawdown_threshold_pct"`
	Granularities        []Granularity `json:"granularities" yaml:"granularities"`
}

// DefaultConfig returns daily-bar defaults
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:         0.02,
		PeriodsPerYear:       252,
		DrawdownThresholdPct: 0.1,
		Granularities:        []Granularity{Monthly, Weekly},
	}
}

// Validate checks the analyzer parameters
func (c Config) Validate() error {
	if !isFinite(c.RiskFreeRate) {
		return core.WrapError(core.ErrInvalidParam, fmt.Errorf("risk free rate must be finite"))
	}
	if c.PeriodsPerYear <= 0 {
		return core.WrapError(core.ErrInvalidParam,
			fmt.Errorf("periods per year must be positive, got %d", c.PeriodsPerYear))
	}
	if !isFinite(c.DrawdownThresholdPct) || c.DrawdownThresholdPct < 0 {
		return core.WrapError(core.ErrInvalidParam,
			fmt.Errorf("drawdown threshold must be non-negative, got %v", c.DrawdownThresholdPct))
	}
	for _, g := range c.Granularities {
		if _, err := ParseGranularity(string(g)); err != nil {
			return err
		}
	}
	return nil
}

// Report collects every statistic derived from one equity curve
type Report struct {
	Points         int                            `json:"points" yaml:"points"`
	TotalReturnPct float64                        `json:"total_return_pct" yaml:"total_return_pct"`
	Sharpe         float64                        `json:"sharpe" yaml:"sharpe"`
	Sortino        float64                        `json:"sortino" yaml:"sortino"`
	MaxDrawdown    Drawdown                       `json:"max_drawdown" yaml:"max_drawdown"`
	Drawdowns      []DrawdownEpisode              `json:"drawdowns" yaml:"drawdowns"`
	DrawdownStats  DrawdownSummary                `json:"drawdown_stats" yaml:"drawdown_stats"`
	Periods        map[Granularity][]PeriodRecord `json:"periods" yaml:"periods"`
	PeriodSummary  map[Granularity]PeriodSummary  `json:"period_summary" yaml:"period_summary"`
}

// Analyzer computes a Report with fixed parameters
type Analyzer struct {
	cfg Config
}

// New creates an analyzer after validating cfg
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// Config returns the analyzer parameters
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze derives the full report. The curve is only read.
func (a *Analyzer) Analyze(curve []backtest.EquityPoint) Report {
	r := Report{
		Points:        len(curve),
		Sharpe:        SharpeRatio(curve, a.cfg.RiskFreeRate, a.cfg.PeriodsPerYear),
		Sortino:       SortinoRatio(curve, a.cfg.RiskFreeRate, a.cfg.PeriodsPerYear),
		MaxDrawdown:   MaxDrawdown(curve),
		Drawdowns:     DetectDrawdowns(curve, a.cfg.DrawdownThresholdPct),
		Periods:       make(map[Granularity][]PeriodRecord, len(a.cfg.Granularities)),
		PeriodSummary: make(map[Granularity]PeriodSummary, len(a.cfg.Granularities)),
	}
	r.DrawdownStats = DrawdownStats(r.Drawdowns)

	if len(curve) > 0 && curve[0].Value > 0 {
		first, last := curve[0].Value, curve[len(curve)-1].Value
		r.TotalReturnPct = (last - first) / first * 100
	}

	for _, g := range a.cfg.Granularities {
		records := AggregatePeriods(curve, g)
		r.Periods[g] = records
		r.PeriodSummary[g] = SummarizePeriods(records)
	}
	return r
}
