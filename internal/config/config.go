package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/replay/internal/alert"
	"github.com/newthinker/replay/internal/analytics"
	"github.com/newthinker/replay/internal/backtest"
	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/notifier"
	"github.com/newthinker/replay/internal/report"
	"github.com/newthinker/replay/internal/storage/archive"
	"github.com/spf13/viper"
)

type Config struct {
	Strategy   string                    `mapstructure:"strategy"` // used when the command line names none
	Engine     EngineConfig              `mapstructure:"engine"`
	Analytics  AnalyticsConfig           `mapstructure:"analytics"`
	Data       DataConfig                `mapstructure:"data"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`
	Report     ReportConfig              `mapstructure:"report"`
	Archive    ArchiveConfig             `mapstructure:"archive"`
	History    HistoryConfig             `mapstructure:"history"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Notify     []notifier.Config         `mapstructure:"notify"` // run completion notifiers
	Alerts     []alert.Rule              `mapstructure:"alerts"` // checked after every successful run
	Log        LogConfig                 `mapstructure:"log"`
}

type EngineConfig struct {
	InitialBalance   float64 `mapstructure:"initial_balance"`
	Commission       float64 `mapstructure:"commission"`
	PositionFraction float64 `mapstructure:"position_fraction"`
}

type AnalyticsConfig struct {
	RiskFreeRate         float64  `mapstructure:"risk_free_rate"`
	PeriodsPerYear       int      `mapstructure:"periods_per_year"`
	DrawdownThresholdPct float64  `mapstructure:"drawdown_threshold_pct"`
	Granularities        []string `mapstructure:"granularities"`
}

type DataConfig struct {
	Path     string `mapstructure:"path"`
	Symbol   string `mapstructure:"symbol"`
	Interval string `mapstructure:"interval"`
}

type StrategyConfig struct {
	Params map[string]any `mapstructure:"params"`
}

type ReportConfig struct {
	Formats []string `mapstructure:"formats"` // json, yaml, text
	Tables  bool     `mapstructure:"tables"`  // CSV trades, equity, periods
	Console bool     `mapstructure:"console"` // print the text summary
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// HistoryConfig holds the run history database settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file; keys it omits keep their Defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Defaults(), nil
	}

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}
	if cfg.Strategies == nil {
		cfg.Strategies = map[string]StrategyConfig{}
	}
	return &cfg, nil
}

// setDefaults registers d with viper so that file values replace, rather
// than merge into, default lists and env overrides apply to every key
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("strategy", d.Strategy)

	v.SetDefault("engine.initial_balance", d.Engine.InitialBalance)
	v.SetDefault("engine.commission", d.Engine.Commission)
	v.SetDefault("engine.position_fraction", d.Engine.PositionFraction)

	v.SetDefault("analytics.risk_free_rate", d.Analytics.RiskFreeRate)
	v.SetDefault("analytics.periods_per_year", d.Analytics.PeriodsPerYear)
	v.SetDefault("analytics.drawdown_threshold_pct", d.Analytics.DrawdownThresholdPct)
	v.SetDefault("analytics.granularities", d.Analytics.Granularities)

	v.SetDefault("data.path", d.Data.Path)
	v.SetDefault("data.symbol", d.Data.Symbol)
	v.SetDefault("data.interval", d.Data.Interval)

	v.SetDefault("report.formats", d.Report.Formats)
	v.SetDefault("report.tables", d.Report.Tables)
	v.SetDefault("report.console", d.Report.Console)

	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.s3.region", d.Archive.S3.Region)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	engine := backtest.DefaultConfig()
	an := analytics.DefaultConfig()
	granularities := make([]string, len(an.Granularities))
	for i, g := range an.Granularities {
		granularities[i] = string(g)
	}

	return &Config{
		Strategy: "ma_crossover",
		Engine: EngineConfig{
			InitialBalance:   engine.InitialBalance,
			Commission:       engine.Commission,
			PositionFraction: engine.PositionFraction,
		},
		Analytics: AnalyticsConfig{
			RiskFreeRate:         an.RiskFreeRate,
			PeriodsPerYear:       an.PeriodsPerYear,
			DrawdownThresholdPct: an.DrawdownThresholdPct,
			Granularities:        granularities,
		},
		Strategies: map[string]StrategyConfig{},
		Report: ReportConfig{
			Formats: []string{"json"},
			Tables:  true,
			Console: true,
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Type:    archive.BackendLocalFS,
			Path:    "results",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "results/history.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Engine.Backtest().Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("engine: %w", err))
	}
	if _, err := c.Analytics.Analyzer(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("analytics: %w", err))
	}
	if _, err := c.Report.ParsedFormats(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("report: %w", err))
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case archive.BackendLocalFS, "":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required when type is localfs"))
			}
		case archive.BackendS3:
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required when archive type is s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("archive type must be localfs or s3, got %q", c.Archive.Type))
		}
	}

	if c.History.Enabled && c.History.Path == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("history path required when history is enabled"))
	}
	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("metrics textfile required when metrics are enabled"))
	}

	for i, n := range c.Notify {
		switch n.Type {
		case "webhook", "telegram":
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("notify[%d]: type must be webhook or telegram, got %q", i, n.Type))
		}
	}

	for _, r := range c.Alerts {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return nil
}

// Backtest converts to engine parameters
func (e EngineConfig) Backtest() backtest.Config {
	return backtest.Config{
		InitialBalance:   e.InitialBalance,
		Commission:       e.Commission,
		PositionFraction: e.PositionFraction,
	}
}

// Analyzer converts to analyzer parameters, validating granularity names
func (a AnalyticsConfig) Analyzer() (analytics.Config, error) {
	cfg := analytics.Config{
		RiskFreeRate:         a.RiskFreeRate,
		PeriodsPerYear:       a.PeriodsPerYear,
		DrawdownThresholdPct: a.DrawdownThresholdPct,
	}
	for _, name := range a.Granularities {
		g, err := analytics.ParseGranularity(name)
		if err != nil {
			return analytics.Config{}, err
		}
		cfg.Granularities = append(cfg.Granularities, g)
	}
	return cfg, cfg.Validate()
}

// ParsedFormats returns the report formats
func (r ReportConfig) ParsedFormats() ([]report.Format, error) {
	formats := make([]report.Format, 0, len(r.Formats))
	for _, name := range r.Formats {
		f, err := report.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Options converts to archive store options
func (a ArchiveConfig) Options() archive.Options {
	return archive.Options{
		Backend: a.Type,
		Path:    a.Path,
		S3: archive.S3Config{
			Bucket:    a.S3.Bucket,
			Endpoint:  a.S3.Endpoint,
			Region:    a.S3.Region,
			AccessKey: a.S3.AccessKey,
			SecretKey: a.S3.SecretKey,
			Prefix:    a.S3.Prefix,
		},
	}
}

// StrategyParams returns the configured params for name, never nil
func (c *Config) StrategyParams(name string) map[string]any {
	if sc, ok := c.Strategies[name]; ok && sc.Params != nil {
		return sc.Params
	}
	return map[string]any{}
}
