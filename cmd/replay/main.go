package main

import (
	"fmt"
	"os"

	"github.com/newthinker/replay/internal/config"
	"github.com/newthinker/replay/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay - strategy backtesting over historical bars",
	Long: `Replay simulates trading strategies over historical OHLCV data and
reports returns, risk ratios, drawdowns and per-period performance.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads --config, or the defaults when none is given
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	opts := logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if debug {
		opts.Level = "debug"
		opts.Development = true
	}
	return logger.New(opts)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
