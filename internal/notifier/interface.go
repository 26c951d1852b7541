package notifier

import (
	"context"
	"time"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Event announces a finished run
type Event struct {
	RunID          string    `json:"run_id"`
	Strategy       string    `json:"strategy"`
	Symbol         string    `json:"symbol"`
	Source         string    `json:"source"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	Bars           int       `json:"bars"`
	Trades         int       `json:"trades"`
	FinalValue     float64   `json:"final_value"`
	TotalReturnPct float64   `json:"total_return_pct"`
	Sharpe         float64   `json:"sharpe"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	ReportLocation string    `json:"report_location,omitempty"`
	Alerts         []string  `json:"alerts,omitempty"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Failed reports whether the run ended in an error
func (e Event) Failed() bool {
	return e.Error != ""
}

// Notifier delivers run events to an external channel
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Notify delivers a single event
	Notify(ctx context.Context, ev Event) error
}
