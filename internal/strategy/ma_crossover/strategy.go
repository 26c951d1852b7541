package ma_crossover

import (
	"fmt"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/indicator"
	"github.com/newthinker/replay/internal/strategy"
)

// Name is the registry key of this strategy
const Name = "ma_crossover"

// MACrossover implements a moving average crossover strategy
type MACrossover struct {
	fastPeriod int
	slowPeriod int
}

// New creates a new MA Crossover strategy
func New(fastPeriod, slowPeriod int) *MACrossover {
	return &MACrossover{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
	}
}

// Factory builds the strategy from fast_period/slow_period params (10/20 by default)
func Factory(params strategy.Params) (strategy.Strategy, error) {
	fast := params.IntParam("fast_period", 10)
	slow := params.IntParam("slow_period", 20)
	if fast <= 0 || slow <= fast {
		return nil, fmt.Errorf("need 0 < fast_period < slow_period, got %d/%d", fast, slow)
	}
	return New(fast, slow), nil
}

func (m *MACrossover) Name() string {
	return Name
}

func (m *MACrossover) Description() string {
	return fmt.Sprintf("MA Crossover (%d/%d)", m.fastPeriod, m.slowPeriod)
}

func (m *MACrossover) Warmup() int {
	return m.slowPeriod + 1
}

// Signal emits buy on a golden cross and sell on a death cross of the
// moving averages ending at index
func (m *MACrossover) Signal(bars []core.OHLCV, index int) core.Action {
	if index+1 < m.Warmup() || index >= len(bars) {
		return core.ActionHold
	}

	prices := strategy.Closes(bars[:index+1])
	fastMA := indicator.SMA(prices, m.fastPeriod)
	slowMA := indicator.SMA(prices, m.slowPeriod)
	if len(fastMA) < 2 || len(slowMA) < 2 {
		return core.ActionHold
	}

	currFast := fastMA[len(fastMA)-1]
	prevFast := fastMA[len(fastMA)-2]
	currSlow := slowMA[len(slowMA)-1]
	prevSlow := slowMA[len(slowMA)-2]

	switch {
	case prevFast <= prevSlow && currFast > currSlow:
		return core.ActionBuy // golden cross
	case prevFast >= prevSlow && currFast < currSlow:
		return core.ActionSell // death cross
	default:
		return core.ActionHold
	}
}
