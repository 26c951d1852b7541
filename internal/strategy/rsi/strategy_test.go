package rsi

import (
	"testing"
	"time"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(prices ...float64) []core.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.OHLCV, len(prices))
	for i, p := range prices {
		bars[i] = core.OHLCV{Close: p, Time: start.AddDate(0, 0, i)}
	}
	return bars
}

func TestRSI_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*RSI)(nil)
}

func TestRSI_Signals(t *testing.T) {
	s := New(4, 30, 70)

	// losses dominate: -5, -5, -5, +1 => RSI = 100 - 100/(1 + 1/15) = 6.25
	falling := series(100, 95, 90, 85, 86)
	assert.Equal(t, core.ActionBuy, s.Signal(falling, 4))

	// gains dominate: +5, +5, +5, -1
	rising := series(100, 105, 110, 115, 114)
	assert.Equal(t, core.ActionSell, s.Signal(rising, 4))

	// balanced: +2, -2, +2, -2 => RSI 50
	flat := series(100, 102, 100, 102, 100)
	assert.Equal(t, core.ActionHold, s.Signal(flat, 4))
}

func TestRSI_Warmup(t *testing.T) {
	s := New(14, 30, 70)
	assert.Equal(t, core.ActionHold, s.Signal(series(100, 90, 80), 2))
}

func TestFactory(t *testing.T) {
	s, err := Factory(strategy.Params{})
	require.NoError(t, err)
	assert.Equal(t, "RSI(14) 30/70", s.Description())

	_, err = Factory(strategy.Params{"oversold": 80, "overbought": 20})
	assert.Error(t, err)
}
