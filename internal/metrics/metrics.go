package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "replay"

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	barsProcessed  *prometheus.CounterVec
	tradesTotal    *prometheus.CounterVec
	signalsTotal   *prometheus.CounterVec
	finalEquity    *prometheus.GaugeVec
	returnPct      *prometheus.GaugeVec
	sharpe         *prometheus.GaugeVec
	maxDrawdownPct *prometheus.GaugeVec
	archiveWrites  *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Registry: reg,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of simulation runs",
			},
			[]string{"strategy", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a simulation run including analysis and reporting",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"strategy"},
		),
		barsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bars_processed_total",
				Help:      "Bars replayed through the engine",
			},
			[]string{"symbol"},
		),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Executed trades by side",
			},
			[]string{"strategy", "side"},
		),
		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Decisions emitted by signal sources",
			},
			[]string{"strategy", "action"},
		),
		finalEquity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "final_equity",
				Help:      "Portfolio value at the last bar of the latest run",
			},
			[]string{"strategy", "symbol"},
		),
		returnPct: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "total_return_percent",
				Help:      "Total return of the latest run",
			},
			[]string{"strategy", "symbol"},
		),
		sharpe: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sharpe_ratio",
				Help:      "Annualized Sharpe ratio of the latest run",
			},
			[]string{"strategy", "symbol"},
		),
		maxDrawdownPct: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "max_drawdown_percent",
				Help:      "Maximum drawdown of the latest run",
			},
			[]string{"strategy", "symbol"},
		),
		archiveWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "archive_writes_total",
				Help:      "Artifacts written to the archive",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		r.runsTotal,
		r.runDuration,
		r.barsProcessed,
		r.tradesTotal,
		r.signalsTotal,
		r.finalEquity,
		r.returnPct,
		r.sharpe,
		r.maxDrawdownPct,
		r.archiveWrites,
	)
	return r
}

// RunOutcome carries what a finished run reports
type RunOutcome struct {
	Strategy       string
	Symbol         string
	Duration       time.Duration
	Bars           int
	Buys           int
	Sells          int
	Signals        map[string]int
	FinalEquity    float64
	TotalReturnPct float64
	Sharpe         float64
	MaxDrawdownPct float64
}

// RecordRun records a successful run.
func (r *Registry) RecordRun(o RunOutcome) {
	r.runsTotal.WithLabelValues(o.Strategy, "ok").Inc()
	r.runDuration.WithLabelValues(o.Strategy).Observe(o.Duration.Seconds())
	r.barsProcessed.WithLabelValues(o.Symbol).Add(float64(o.Bars))
	r.tradesTotal.WithLabelValues(o.Strategy, "buy").Add(float64(o.Buys))
	r.tradesTotal.WithLabelValues(o.Strategy, "sell").Add(float64(o.Sells))
	for action, n := range o.Signals {
		r.signalsTotal.WithLabelValues(o.Strategy, action).Add(float64(n))
	}
	r.finalEquity.WithLabelValues(o.Strategy, o.Symbol).Set(o.FinalEquity)
	r.returnPct.WithLabelValues(o.Strategy, o.Symbol).Set(o.TotalReturnPct)
	r.sharpe.WithLabelValues(o.Strategy, o.Symbol).Set(o.Sharpe)
	r.maxDrawdownPct.WithLabelValues(o.Strategy, o.Symbol).Set(o.MaxDrawdownPct)
}

// RecordFailure records a run that did not complete.
func (r *Registry) RecordFailure(strategy string, duration time.Duration) {
	r.runsTotal.WithLabelValues(strategy, "failed").Inc()
	r.runDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordArchiveWrite counts one artifact write.
func (r *Registry) RecordArchiveWrite(err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	r.archiveWrites.WithLabelValues(status).Inc()
}

// WriteTextfile dumps the registry in text exposition format, suitable for
// the node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.Registry)
}
