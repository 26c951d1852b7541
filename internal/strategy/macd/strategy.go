package macd

import (
	"fmt"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/indicator"
	"github.com/newthinker/replay/internal/strategy"
)

// Name is the registry key of this strategy
const Name = "macd"

// MACD trades crossovers of the MACD line and its signal line
type MACD struct {
	fast   int
	slow   int
	signal int
}

// New creates a MACD strategy
func New(fast, slow, signal int) *MACD {
	return &MACD{fast: fast, slow: slow, signal: signal}
}

// Factory builds the strategy from fast_period/slow_period/signal_period
// params (12/26/9 by default)
func Factory(params strategy.Params) (strategy.Strategy, error) {
	fast := params.IntParam("fast_period", 12)
	slow := params.IntParam("slow_period", 26)
	signal := params.IntParam("signal_period", 9)
	if fast <= 0 || slow <= fast {
		return nil, fmt.Errorf("need 0 < fast_period < slow_period, got %d/%d", fast, slow)
	}
	if signal <= 0 {
		return nil, fmt.Errorf("signal_period must be positive, got %d", signal)
	}
	return New(fast, slow, signal), nil
}

func (m *MACD) Name() string { return Name }

func (m *MACD) Description() string {
	return fmt.Sprintf("MACD (%d/%d/%d)", m.fast, m.slow, m.signal)
}

// Warmup covers the slow EMA, the signal EMA and one extra value for the
// crossover comparison
func (m *MACD) Warmup() int { return m.slow + m.signal }

func (m *MACD) Signal(bars []core.OHLCV, index int) core.Action {
	if index+1 < m.Warmup() || index >= len(bars) {
		return core.ActionHold
	}

	v, ok := indicator.CalcMACD(strategy.Closes(bars[:index+1]), m.fast, m.slow, m.signal)
	if !ok || len(v.Line) < 2 {
		return core.ActionHold
	}

	n := len(v.Line)
	prevDiff := v.Line[n-2] - v.Signal[n-2]
	currDiff := v.Line[n-1] - v.Signal[n-1]

	switch {
	case prevDiff <= 0 && currDiff > 0:
		return core.ActionBuy
	case prevDiff >= 0 && currDiff < 0:
		return core.ActionSell
	default:
		return core.ActionHold
	}
}
