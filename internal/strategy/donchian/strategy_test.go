package donchian

import (
	"testing"
	"time"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hl struct{ high, low float64 }

func series(ranges ...hl) []core.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.OHLCV, len(ranges))
	for i, r := range ranges {
		mid := (r.high + r.low) / 2
		out[i] = core.OHLCV{Symbol: "TEST", Open: mid, High: r.high, Low: r.low, Close: mid, Time: start.AddDate(0, 0, i)}
	}
	return out
}

func TestBreakout_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*Breakout)(nil)
}

func TestChannel(t *testing.T) {
	upper, lower := Channel(series(hl{105, 95}, hl{110, 100}, hl{103, 90}))
	assert.Equal(t, 110.0, upper)
	assert.Equal(t, 90.0, lower)
}

func TestBreakout_Signal(t *testing.T) {
	s := New(3)
	base := []hl{{105, 95}, {110, 100}, {103, 90}}

	tests := []struct {
		name string
		last hl
		want core.Action
	}{
		{"inside channel", hl{108, 92}, core.ActionHold},
		{"touching the high is not a breakout", hl{110, 95}, core.ActionHold},
		{"breaks above", hl{111, 100}, core.ActionBuy},
		{"breaks below", hl{100, 89}, core.ActionSell},
		{"outside both sides favours buy", hl{120, 80}, core.ActionBuy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := series(append(append([]hl{}, base...), tt.last)...)
			assert.Equal(t, tt.want, s.Signal(bars, 3))
		})
	}
}

func TestBreakout_Warmup(t *testing.T) {
	s := New(3)
	bars := series(hl{100, 90}, hl{200, 10}, hl{300, 5})
	for i := range bars {
		assert.Equal(t, core.ActionHold, s.Signal(bars, i))
	}
	assert.Equal(t, 4, s.Warmup())
}

func TestFactory(t *testing.T) {
	s, err := Factory(strategy.Params{"period": 55.0})
	require.NoError(t, err)
	assert.Equal(t, 56, s.Warmup())

	_, err = Factory(strategy.Params{"period": 0})
	assert.Error(t, err)
}
