package macd

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
	out := make([]core.OHLCV, len(prices))
	for i, p := range prices {
		out[i] = core.OHLCV{Symbol: "TEST", Open: p, High: p, Low: p, Close: p, Time: start.AddDate(0, 0, i)}
	}
	return out
}

func TestMACD_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*MACD)(nil)
}

func TestMACD_Crossovers(t *testing.T) {
	s := New(2, 3, 2)

	tests := []struct {
		name   string
		prices []float64
		want   core.Action
	}{
		{"flat", []float64{100, 100, 100, 100, 100, 100, 100}, core.ActionHold},
		{"jump up crosses above", []float64{100, 100, 100, 100, 100, 100, 110}, core.ActionBuy},
		{"drop crosses below", []float64{100, 100, 100, 100, 100, 100, 90}, core.ActionSell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := series(tt.prices...)
			assert.Equal(t, tt.want, s.Signal(bars, len(bars)-1))
		})
	}
}

func TestMACD_WarmupAndPrefix(t *testing.T) {
	s := New(2, 3, 2)
	assert.Equal(t, 5, s.Warmup())

	bars := series(100, 100, 100, 100, 100, 100, 110, 50, 50)
	assert.Equal(t, core.ActionHold, s.Signal(bars, 3))
	assert.Equal(t, core.ActionBuy, s.Signal(bars, 6), "later bars must not change the decision")
	assert.Equal(t, core.ActionHold, s.Signal(bars, 20))
}

func TestFactory(t *testing.T) {
	s, err := Factory(strategy.Params{})
	require.NoError(t, err)
	assert.Equal(t, "MACD (12/26/9)", s.Description())
	assert.Equal(t, 35, s.Warmup())

	_, err = Factory(strategy.Params{"fast_period": 26, "slow_period": 12})
	assert.Error(t, err)
	_, err = Factory(strategy.Params{"signal_period": 0})
	assert.Error(t, err)
}
