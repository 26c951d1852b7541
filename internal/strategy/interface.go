package strategy

import (
	"github.com/newthinker/replay/internal/core"
)

// Params holds strategy tuning parameters as decoded from configuration
type Params map[string]any

// SignalSource produces one trading decision per bar.
//
// Signal receives the series up to and including index and must not depend
// on anything later; the simulation engine only ever passes the prefix
// bars[:index+1]. Implementations are expected to be stateless so that the
// same series always yields the same decisions.
type SignalSource interface {
	Signal(bars []core.OHLCV, index int) core.Action
}

// SourceFunc adapts a plain function to SignalSource
type SourceFunc func(bars []core.OHLCV, index int) core.Action

// Signal calls f(bars, index).
func (f SourceFunc) Signal(bars []core.OHLCV, index int) core.Action {
	return f(bars, index)
}

// Strategy is a named SignalSource
type Strategy interface {
	SignalSource
	Name() string
	Description() string
	// Warmup is the number of bars needed before the strategy emits anything but hold.
	Warmup() int
}

// Factory builds a strategy from parameters
type Factory func(params Params) (Strategy, error)

// Closes extracts closing prices from bars
func Closes(bars []core.OHLCV) []float64 {
	prices := make([]float64, len(bars))
	for i, bar := range bars {
		prices[i] = bar.Close
	}
	return prices
}

// IntParam reads an integer parameter, accepting the numeric types config
// decoders produce. Falls back to def when absent or of another type.
func (p Params) IntParam(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// FloatParam reads a float parameter, falling back to def.
func (p Params) FloatParam(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}
