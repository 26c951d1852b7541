package core

import (
	"fmt"
	"math"
	"time"
)

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1m", "5m", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Time     time.Time
}

// Validate checks that the bar carries every field the engine relies on.
func (b OHLCV) Validate() error {
	if b.Time.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	if !finite(b.Close) || b.Close <= 0 {
		return fmt.Errorf("close must be a positive number, got %v", b.Close)
	}
	for name, v := range map[string]float64{"open": b.Open, "high": b.High, "low": b.Low, "volume": b.Volume} {
		if !finite(v) || v < 0 {
			return fmt.Errorf("%s must be a non-negative number, got %v", name, v)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateSeries checks a bar series before a simulation touches it:
// non-empty, every bar valid, timestamps strictly increasing.
func ValidateSeries(bars []OHLCV) error {
	if len(bars) == 0 {
		return WrapError(ErrInvalidSeries, ErrNoData)
	}
	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return WrapError(ErrInvalidSeries, fmt.Errorf("bar %d: %w", i, err))
		}
		if i > 0 && !bar.Time.After(bars[i-1].Time) {
			return WrapError(ErrInvalidSeries,
				fmt.Errorf("bar %d: timestamp %s not after %s", i,
					bar.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339)))
		}
	}
	return nil
}

// Action represents a trading signal action
type Action string

const (
	ActionBuy        Action = "buy"
	ActionSell       Action = "sell"
	ActionHold       Action = "hold"
	ActionStrongBuy  Action = "strong_buy"
	ActionStrongSell Action = "strong_sell"
)

// ActionFromInt maps the numeric signal convention (1 buy, -1 sell, 0 hold).
func ActionFromInt(v int) Action {
	switch v {
	case 1:
		return ActionBuy
	case -1:
		return ActionSell
	default:
		return ActionHold
	}
}

// IsBuy reports whether the action opens a long position.
func (a Action) IsBuy() bool {
	return a == ActionBuy || a == ActionStrongBuy
}

// IsSell reports whether the action closes a long position.
func (a Action) IsSell() bool {
	return a == ActionSell || a == ActionStrongSell
}

// Int returns the numeric form of the action.
func (a Action) Int() int {
	switch {
	case a.IsBuy():
		return 1
	case a.IsSell():
		return -1
	default:
		return 0
	}
}
