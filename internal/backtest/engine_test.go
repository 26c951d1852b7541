package backtest

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func makeBars(closes ...float64) []core.OHLCV {
	bars := make([]core.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = core.OHLCV{
			Symbol:   "AAPL",
			Interval: "1d",
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			Volume:   1000,
			Time:     t0.AddDate(0, 0, i),
		}
	}
	return bars
}

// scripted replays a fixed action per bar index
func scripted(actions ...core.Action) strategy.SignalSource {
	return strategy.SourceFunc(func(_ []core.OHLCV, i int) core.Action {
		if i < len(actions) {
			return actions[i]
		}
		return core.ActionHold
	})
}

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestEngine_RunRoundTrip(t *testing.T) {
	e := mustEngine(t, Config{InitialBalance: 10000, Commission: 0, PositionFraction: 0.95})

	res, err := e.Run(makeBars(100, 110, 90, 120),
		scripted(core.ActionBuy, core.ActionHold, core.ActionSell, core.ActionHold))
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	buy, sell := res.Trades[0], res.Trades[1]

	assert.Equal(t, SideBuy, buy.Side)
	assert.Equal(t, 0, buy.Index)
	assert.InDelta(t, 95, buy.Quantity, 1e-9)
	assert.InDelta(t, 500, buy.Balance, 1e-9)

	assert.Equal(t, SideSell, sell.Side)
	assert.Equal(t, 2, sell.Index)
	assert.InDelta(t, 9050, sell.Balance, 1e-9)
	assert.InDelta(t, -950, sell.Profit, 1e-9)
	assert.InDelta(t, -10, sell.ProfitPct, 1e-9)

	require.Len(t, res.Equity, 4)
	wantEquity := []float64{10000, 10950, 9050, 9050}
	for i, want := range wantEquity {
		assert.InDelta(t, want, res.Equity[i].Value, 1e-9, "equity[%d]", i)
	}

	assert.Equal(t, StatusFlat, res.Final.Status)
	assert.Zero(t, res.Final.EntryPrice)
	assert.Equal(t, 1, res.Signals[core.ActionBuy])
	assert.Equal(t, 2, res.Signals[core.ActionHold])

	sum, ok := e.Summary()
	require.True(t, ok)
	assert.Equal(t, 1, sum.TotalTrades)
	assert.Equal(t, 0, sum.WinningTrades)
	assert.Equal(t, 1, sum.LosingTrades)
	assert.Zero(t, sum.WinRate)
	assert.InDelta(t, -950, sum.TotalProfit, 1e-9)
	assert.InDelta(t, -9.5, sum.TotalReturnPct, 1e-9)
}

func TestEngine_Commission(t *testing.T) {
	e := mustEngine(t, Config{InitialBalance: 10000, Commission: 0.01, PositionFraction: 1})

	require.True(t, e.ExecuteBuy(100, 50, t0))
	// 50*100*1.01
	assert.InDelta(t, 10000-5050, e.State().Balance, 1e-9)
	require.True(t, e.ExecuteSell(100, 50, t0.Add(time.Hour)))
	// 5000*0.99
	assert.InDelta(t, 4950+4950, e.State().Balance, 1e-9)
}

func TestEngine_ExecuteBuyRejections(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	tests := []struct {
		name     string
		price    float64
		quantity float64
	}{
		{"insufficient funds", 100, 1000},
		{"zero quantity", 100, 0},
		{"negative price", -1, 10},
		{"nan price", math.NaN(), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, e.ExecuteBuy(tt.price, tt.quantity, t0))
			assert.Empty(t, e.Trades())
			assert.InDelta(t, 10000, e.State().Balance, 1e-9)
		})
	}

	require.True(t, e.ExecuteBuy(100, 10, t0))
	assert.False(t, e.ExecuteBuy(100, 10, t0.Add(time.Hour)), "second buy while long")
	assert.Len(t, e.Trades(), 1)
}

func TestEngine_ExecuteSellRejections(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	assert.False(t, e.ExecuteSell(100, 1, t0), "sell with no position")

	require.True(t, e.ExecuteBuy(100, 10, t0))
	assert.False(t, e.ExecuteSell(100, 11, t0.Add(time.Hour)), "sell more than held")
	assert.False(t, e.ExecuteSell(100, 5, t0), "sell not after last trade")

	require.True(t, e.ExecuteSell(120, 4, t0.Add(time.Hour)))
	st := e.State()
	assert.InDelta(t, 6, st.Position, 1e-9)
	assert.InDelta(t, 100, st.EntryPrice, 1e-9)
	assert.Equal(t, StatusLong, st.Status)
}

func TestEngine_PortfolioValue(t *testing.T) {
	e := mustEngine(t, Config{InitialBalance: 1000, PositionFraction: 1})
	assert.InDelta(t, 1000, e.PortfolioValue(50), 1e-9)

	require.True(t, e.ExecuteBuy(10, 20, t0))
	assert.InDelta(t, 800+20*15, e.PortfolioValue(15), 1e-9)
}

func TestEngine_RunInvalidSeries(t *testing.T) {
	bars := makeBars(100, 101, 102)
	bars[2].Time = bars[1].Time

	e := mustEngine(t, DefaultConfig())
	_, err := e.Run(bars, scripted(core.ActionBuy))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidSeries))

	assert.Empty(t, e.Trades())
	assert.Empty(t, e.EquityCurve())
	assert.InDelta(t, 10000, e.State().Balance, 1e-9)

	// a failed run does not consume the engine
	_, err = e.Run(makeBars(100, 101), scripted())
	assert.NoError(t, err)
}

func TestEngine_RunEmpty(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	_, err := e.Run(nil, scripted())
	assert.ErrorIs(t, err, core.ErrInvalidSeries)
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestEngine_SingleUse(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	_, err := e.Run(makeBars(1, 2, 3), scripted())
	require.NoError(t, err)

	_, err = e.Run(makeBars(1, 2, 3), scripted())
	assert.ErrorIs(t, err, core.ErrEngineUsed)
	assert.False(t, e.ExecuteBuy(1, 1, t0.AddDate(1, 0, 0)))

	used := mustEngine(t, DefaultConfig())
	require.True(t, used.ExecuteBuy(10, 1, t0))
	_, err = used.Run(makeBars(1, 2), scripted())
	assert.ErrorIs(t, err, core.ErrEngineUsed)
}

func TestEngine_RunNilSource(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	_, err := e.Run(makeBars(1), nil)
	assert.ErrorIs(t, err, core.ErrInvalidParam)
}

func TestEngine_NoLookahead(t *testing.T) {
	bars := makeBars(10, 11, 12, 13, 14)
	e := mustEngine(t, DefaultConfig())

	src := strategy.SourceFunc(func(seen []core.OHLCV, i int) core.Action {
		assert.Len(t, seen, i+1)
		assert.Equal(t, i+1, cap(seen), "prefix must not expose later bars")
		assert.Equal(t, bars[i].Time, seen[len(seen)-1].Time)
		return core.ActionHold
	})
	_, err := e.Run(bars, src)
	require.NoError(t, err)
}

func TestEngine_InvariantsUnderRandomSignals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	closes := make([]float64, 200)
	price := 100.0
	for i := range closes {
		price *= 1 + (rng.Float64()-0.5)*0.06
		closes[i] = price
	}
	actions := make([]core.Action, len(closes))
	choices := []core.Action{core.ActionBuy, core.ActionSell, core.ActionHold, core.ActionStrongBuy, core.ActionStrongSell}
	for i := range actions {
		actions[i] = choices[rng.Intn(len(choices))]
	}
	bars := makeBars(closes...)

	var finals []float64
	for _, commission := range []float64{0, 0.001, 0.01, 0.05} {
		e := mustEngine(t, Config{InitialBalance: 10000, Commission: commission, PositionFraction: 0.95})
		res, err := e.Run(bars, scripted(actions...))
		require.NoError(t, err)

		require.Len(t, res.Equity, len(bars))
		for i, p := range res.Equity {
			assert.GreaterOrEqual(t, p.Cash, -1e-9, "cash at %d", i)
			assert.GreaterOrEqual(t, p.Position, 0.0, "position at %d", i)
			assert.InDelta(t, p.Cash+p.Position*p.Price, p.Value, 1e-6, "value at %d", i)
		}

		// trades alternate buy, sell, buy, ...
		for i, tr := range res.Trades {
			want := SideBuy
			if i%2 == 1 {
				want = SideSell
			}
			assert.Equal(t, want, tr.Side, "trade %d", i)
			if i > 0 {
				assert.True(t, tr.Time.After(res.Trades[i-1].Time))
			}
		}
		finals = append(finals, res.Equity[len(res.Equity)-1].Value)
	}

	for i := 1; i < len(finals); i++ {
		assert.LessOrEqual(t, finals[i], finals[i-1]+1e-9, "higher commission must not improve the outcome")
	}
}

func TestEngine_SummaryNoTrades(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	_, err := e.Run(makeBars(1, 2, 3), scripted())
	require.NoError(t, err)

	_, ok := e.Summary()
	assert.False(t, ok)

	// an open position is not a closed trade
	e = mustEngine(t, DefaultConfig())
	_, err = e.Run(makeBars(1, 2, 3), scripted(core.ActionBuy))
	require.NoError(t, err)
	_, ok = e.Summary()
	assert.False(t, ok)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero balance", Config{InitialBalance: 0, PositionFraction: 1}},
		{"negative commission", Config{InitialBalance: 1, Commission: -0.1, PositionFraction: 1}},
		{"commission of one", Config{InitialBalance: 1, Commission: 1, PositionFraction: 1}},
		{"zero fraction", Config{InitialBalance: 1}},
		{"fraction above one", Config{InitialBalance: 1, PositionFraction: 1.5}},
		{"infinite balance", Config{InitialBalance: math.Inf(1), PositionFraction: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, core.ErrInvalidParam)
		})
	}

	_, err := New(DefaultConfig())
	assert.NoError(t, err)
}
