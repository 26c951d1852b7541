package backtest

import (
	"time"

	"github.com/newthinker/replay/internal/core"
)

// Side is the direction of an executed trade
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Status is the engine's position state
type Status string

const (
	StatusFlat Status = "flat"
	StatusLong Status = "long"
)

// Config holds engine construction parameters
type Config struct {
	InitialBalance   float64 `json:"initial_balance" yaml:"initial_balance"`
	Commission       float64 `json:"commission" yaml:"commission"`               // fraction of notional, in [0,1)
	PositionFraction float64 `json:"position_fraction" yaml:"position_fraction"` // share of balance committed on buy
}

// DefaultConfig returns the stock engine parameters
func DefaultConfig() Config {
	return Config{
		InitialBalance:   10000,
		Commission:       0.001,
		PositionFraction: 0.95,
	}
}

// Trade is one executed order in the ledger
type Trade struct {
	Side     Side      `json:"side" yaml:"side"`
	Index    int       `json:"index" yaml:"index"` // bar index, -1 for orders placed outside Run
	Time     time.Time `json:"time" yaml:"time"`
	Price    float64   `json:"price" yaml:"price"`
	Quantity float64   `json:"quantity" yaml:"quantity"`
	Amount   float64   `json:"amount" yaml:"amount"`   // cost for buys, revenue for sells
	Balance  float64   `json:"balance" yaml:"balance"` // cash after the trade
	// Realized profit, sells only
	Profit    float64 `json:"profit,omitempty" yaml:"profit,omitempty"`
	ProfitPct float64 `json:"profit_pct,omitempty" yaml:"profit_pct,omitempty"`
}

// IsWin returns true if the trade realized a profit
func (t Trade) IsWin() bool {
	return t.Side == SideSell && t.Profit > 0
}

// IsLoss returns true if the trade realized a loss
func (t Trade) IsLoss() bool {
	return t.Side == SideSell && t.Profit < 0
}

// EquityPoint is the portfolio valuation after a bar was processed
type EquityPoint struct {
	Time     time.Time `json:"time" yaml:"time"`
	Value    float64   `json:"value" yaml:"value"` // cash + position * price
	Price    float64   `json:"price" yaml:"price"` // reference close
	Cash     float64   `json:"cash" yaml:"cash"`
	Position float64   `json:"position" yaml:"position"`
}

// State is a snapshot of the engine's mutable state
type State struct {
	Balance    float64 `json:"balance" yaml:"balance"`
	Position   float64 `json:"position" yaml:"position"`
	EntryPrice float64 `json:"entry_price" yaml:"entry_price"`
	Status     Status  `json:"status" yaml:"status"`
}

// Result holds the complete simulation output
type Result struct {
	Symbol  string              `json:"symbol" yaml:"symbol"`
	Start   time.Time           `json:"start" yaml:"start"`
	End     time.Time           `json:"end" yaml:"end"`
	Bars    int                 `json:"bars" yaml:"bars"`
	Config  Config              `json:"config" yaml:"config"`
	Trades  []Trade             `json:"trades" yaml:"trades"`
	Equity  []EquityPoint       `json:"equity" yaml:"equity"`
	Final   State               `json:"final" yaml:"final"`
	Signals map[core.Action]int `json:"signals" yaml:"signals"` // decisions emitted by the source
}

// Summary holds trade statistics derived from the ledger
type Summary struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	TotalTrades    int     `json:"total_trades" yaml:"total_trades"` // closed (sell) trades
	WinningTrades  int     `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades   int     `json:"losing_trades" yaml:"losing_trades"`
	WinRate        float64 `json:"win_rate" yaml:"win_rate"` // percentage of winning sells
	TotalProfit    float64 `json:"total_profit" yaml:"total_profit"`
	TotalReturnPct float64 `json:"total_return_pct" yaml:"total_return_pct"`
	AvgProfit      float64 `json:"avg_profit" yaml:"avg_profit"`
	AvgProfitPct   float64 `json:"avg_profit_pct" yaml:"avg_profit_pct"`
	MaxProfit      float64 `json:"max_profit" yaml:"max_profit"`
	MaxLoss        float64 `json:"max_loss" yaml:"max_loss"`
	FinalBalance   float64 `json:"final_balance" yaml:"final_balance"`
	FinalPosition  float64 `json:"final_position" yaml:"final_position"`
}
