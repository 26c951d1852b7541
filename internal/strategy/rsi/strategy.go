package rsi

import (
	"fmt"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/indicator"
	"github.com/newthinker/replay/internal/strategy"
)

// Name is the registry key of this strategy
const Name = "rsi"

// RSI buys oversold and sells overbought conditions
type RSI struct {
	period     int
	oversold   float64
	overbought float64
}

// New creates an RSI strategy
func New(period int, oversold, overbought float64) *RSI {
	return &RSI{period: period, oversold: oversold, overbought: overbought}
}

// Factory builds the strategy from period/oversold/overbought params (14/30/70 by default)
func Factory(params strategy.Params) (strategy.Strategy, error) {
	period := params.IntParam("period", 14)
	oversold := params.FloatParam("oversold", 30)
	overbought := params.FloatParam("overbought", 70)
	if period < 2 {
		return nil, fmt.Errorf("period must be at least 2, got %d", period)
	}
	if oversold < 0 || overbought > 100 || oversold >= overbought {
		return nil, fmt.Errorf("need 0 <= oversold < overbought <= 100, got %.1f/%.1f", oversold, overbought)
	}
	return New(period, oversold, overbought), nil
}

func (r *RSI) Name() string { return Name }

func (r *RSI) Description() string {
	return fmt.Sprintf("RSI(%d) %.0f/%.0f", r.period, r.oversold, r.overbought)
}

func (r *RSI) Warmup() int { return r.period + 1 }

func (r *RSI) Signal(bars []core.OHLCV, index int) core.Action {
	if index+1 < r.Warmup() || index >= len(bars) {
		return core.ActionHold
	}

	value, ok := indicator.RSI(strategy.Closes(bars[:index+1]), r.period)
	if !ok {
		return core.ActionHold
	}

	switch {
	case value < r.oversold:
		return core.ActionBuy
	case value > r.overbought:
		return core.ActionSell
	default:
		return core.ActionHold
	}
}
