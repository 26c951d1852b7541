package bollinger

import (
	"testing"
	"time"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/strategy"
	"github.com/stretchr/testify/assert"
)

func series(prices ...float64) []core.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.OHLCV, len(prices))
	for i, p := range prices {
		bars[i] = core.OHLCV{Close: p, Time: start.AddDate(0, 0, i)}
	}
	return bars
}

func TestBands_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*Bands)(nil)
}

func TestBands_Signals(t *testing.T) {
	s := New(5, 1)

	// window 100,100,100,100,80: mean 96, sample std ~8.94 => lower ~87.1
	assert.Equal(t, core.ActionBuy, s.Signal(series(100, 100, 100, 100, 80), 4))
	assert.Equal(t, core.ActionSell, s.Signal(series(100, 100, 100, 100, 120), 4))
	assert.Equal(t, core.ActionHold, s.Signal(series(100, 101, 99, 100, 100), 4))
}

func TestBands_Warmup(t *testing.T) {
	s := New(20, 2)
	assert.Equal(t, core.ActionHold, s.Signal(series(1, 2, 3), 2))
}

func TestFactory_Invalid(t *testing.T) {
	_, err := Factory(strategy.Params{"period": 1})
	assert.Error(t, err)
}
