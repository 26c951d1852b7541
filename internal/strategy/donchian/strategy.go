package donchian

import (
	"fmt"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/strategy"
)

// Name is the registry key of this strategy
const Name = "donchian_breakout"

// Breakout buys when the high clears the channel of the previous period
// bars and sells when the low breaks beneath it
type Breakout struct {
	period int
}

// New creates a channel breakout strategy
func New(period int) *Breakout {
	return &Breakout{period: period}
}

// Factory builds the strategy from the period param (20 by default)
func Factory(params strategy.Params) (strategy.Strategy, error) {
	period := params.IntParam("period", 20)
	if period < 1 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	return New(period), nil
}

func (b *Breakout) Name() string { return Name }

func (b *Breakout) Description() string {
	return fmt.Sprintf("Donchian breakout (%d)", b.period)
}

func (b *Breakout) Warmup() int { return b.period + 1 }

// Channel returns the highest high and lowest low of bars
func Channel(bars []core.OHLCV) (upper, lower float64) {
	for i, bar := range bars {
		if i == 0 || bar.High > upper {
			upper = bar.High
		}
		if i == 0 || bar.Low < lower {
			lower = bar.Low
		}
	}
	return upper, lower
}

// Signal compares bar index against the channel of the period bars before
// it; the current bar is never part of its own channel
func (b *Breakout) Signal(bars []core.OHLCV, index int) core.Action {
	if index < b.period || index >= len(bars) {
		return core.ActionHold
	}

	upper, lower := Channel(bars[index-b.period : index])
	current := bars[index]

	switch {
	case current.High > upper:
		return core.ActionBuy
	case current.Low < lower:
		return core.ActionSell
	default:
		return core.ActionHold
	}
}
