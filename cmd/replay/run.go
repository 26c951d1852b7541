package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/replay/internal/config"
	"github.com/newthinker/replay/internal/metrics"
	"github.com/newthinker/replay/internal/report"
	"github.com/newthinker/replay/internal/runner"
	"github.com/newthinker/replay/internal/storage/archive"
	"github.com/newthinker/replay/internal/storage/runs"
	"github.com/newthinker/replay/internal/strategy"
	"github.com/newthinker/replay/internal/strategy/builtin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runData       string
	runSymbol     string
	runInterval   string
	runBalance    float64
	runCommission float64
	runFraction   float64
	runFormats    []string
	runOut        string
	runNoArchive  bool
)

var runCmd = &cobra.Command{
	Use:   "run [strategy]",
	Short: "Backtest a strategy over a data file",
	Long: `Run a strategy against a CSV or Parquet bar file, print the report and
archive the artifacts. The strategy defaults to the one named in the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runData, "data", "", "CSV or Parquet bar file")
	f.StringVar(&runSymbol, "symbol", "", "symbol for files without a symbol column")
	f.StringVar(&runInterval, "interval", "", "bar interval label, e.g. 1m or 1d")
	f.Float64Var(&runBalance, "balance", 0, "initial balance")
	f.Float64Var(&runCommission, "commission", 0, "commission as a fraction of notional")
	f.Float64Var(&runFraction, "fraction", 0, "share of the balance committed per buy")
	f.StringSliceVar(&runFormats, "format", nil, "report formats: json, yaml, text")
	f.StringVar(&runOut, "out", "", "local archive directory")
	f.BoolVar(&runNoArchive, "no-archive", false, "do not archive artifacts")

	rootCmd.AddCommand(runCmd)
}

// applyRunFlags lets explicitly set flags override the config file
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Strategy = args[0]
	}
	if flags.Changed("data") {
		cfg.Data.Path = runData
	}
	if flags.Changed("symbol") {
		cfg.Data.Symbol = runSymbol
	}
	if flags.Changed("interval") {
		cfg.Data.Interval = runInterval
	}
	if flags.Changed("balance") {
		cfg.Engine.InitialBalance = runBalance
	}
	if flags.Changed("commission") {
		cfg.Engine.Commission = runCommission
	}
	if flags.Changed("fraction") {
		cfg.Engine.PositionFraction = runFraction
	}
	if flags.Changed("format") {
		cfg.Report.Formats = runFormats
	}
	if flags.Changed("out") {
		cfg.Archive.Enabled = true
		cfg.Archive.Type = archive.BackendLocalFS
		cfg.Archive.Path = runOut
	}
	if runNoArchive {
		cfg.Archive.Enabled = false
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg, args)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := strategy.NewRegistry(log)
	builtin.Register(reg)
	r := runner.New(reg, log)

	if cfg.Archive.Enabled {
		store, err := archive.New(cfg.Archive.Options())
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		r.SetArchive(store)
	}

	if cfg.History.Enabled {
		history, err := runs.Open(ctx, cfg.History.Path)
		if err != nil {
			return fmt.Errorf("opening run history: %w", err)
		}
		defer history.Close()
		r.SetHistory(history)
	}

	var m *metrics.Registry
	if cfg.Metrics.Enabled {
		m = metrics.NewRegistry()
		r.SetMetrics(m)
		defer writeMetrics(m, cfg.Metrics.Textfile, log)
	}

	if len(cfg.Notify) > 0 {
		notifiers, err := buildNotifiers(cfg.Notify)
		if err != nil {
			return fmt.Errorf("configuring notifiers: %w", err)
		}
		r.SetNotifiers(notifiers)
	}
	r.SetAlerts(cfg.Alerts)

	formats, err := cfg.Report.ParsedFormats()
	if err != nil {
		return err
	}
	an, err := cfg.Analytics.Analyzer()
	if err != nil {
		return err
	}

	out, err := r.Run(ctx, runner.Request{
		Strategy:  cfg.Strategy,
		Params:    cfg.StrategyParams(cfg.Strategy),
		DataPath:  cfg.Data.Path,
		Symbol:    cfg.Data.Symbol,
		Interval:  cfg.Data.Interval,
		Engine:    cfg.Engine.Backtest(),
		Analytics: an,
		Formats:   formats,
		Tables:    cfg.Report.Tables,
	})
	if err != nil {
		return err
	}

	return printOutcome(cmd, cfg, out)
}

func printOutcome(cmd *cobra.Command, cfg *config.Config, out *runner.Outcome) error {
	w := cmd.OutOrStdout()
	if cfg.Report.Console {
		if err := report.WriteText(w, out.Document); err != nil {
			return err
		}
	}
	if len(out.Alerts) > 0 {
		fmt.Fprintln(w, "\nAlerts:")
		for _, a := range out.Alerts {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	if len(out.Locations) > 0 {
		fmt.Fprintf(w, "\nRun %s archived:\n", out.RunID)
		for _, loc := range out.Locations {
			fmt.Fprintf(w, "  %s\n", loc)
		}
	}
	return nil
}

func writeMetrics(m *metrics.Registry, path string, log *zap.Logger) {
	if err := m.WriteTextfile(path); err != nil {
		log.Warn("writing metrics textfile failed", zap.Error(err))
		return
	}
	log.Debug("metrics written", zap.String("path", path))
}

// runContext is the command context, or Background when run outside Execute
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
