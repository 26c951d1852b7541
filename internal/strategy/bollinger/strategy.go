package bollinger

import (
	"fmt"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/indicator"
	"github.com/newthinker/replay/internal/strategy"
)

// Name is the registry key of this strategy
const Name = "bollinger"

// Bands buys at the lower band and sells at the upper band
type Bands struct {
	period int
	width  float64
}

// New creates a Bollinger band strategy
func New(period int, width float64) *Bands {
	return &Bands{period: period, width: width}
}

// Factory builds the strategy from period/std_dev params (20/2 by default)
func Factory(params strategy.Params) (strategy.Strategy, error) {
	period := params.IntParam("period", 20)
	width := params.FloatParam("std_dev", 2)
	if period < 2 || width <= 0 {
		return nil, fmt.Errorf("need period >= 2 and std_dev > 0, got %d/%.2f", period, width)
	}
	return New(period, width), nil
}

func (b *Bands) Name() string { return Name }

func (b *Bands) Description() string {
	return fmt.Sprintf("Bollinger Bands (%d, %.1f)", b.period, b.width)
}

func (b *Bands) Warmup() int { return b.period }

func (b *Bands) Signal(bars []core.OHLCV, index int) core.Action {
	if index+1 < b.Warmup() || index >= len(bars) {
		return core.ActionHold
	}

	bands, ok := indicator.Bollinger(strategy.Closes(bars[:index+1]), b.period, b.width)
	if !ok {
		return core.ActionHold
	}

	price := bars[index].Close
	switch {
	case price <= bands.Lower:
		return core.ActionBuy
	case price >= bands.Upper:
		return core.ActionSell
	default:
		return core.ActionHold
	}
}
