// Package analytics derives risk and return statistics from an equity curve.
// Every function is pure: inputs are never modified and degenerate inputs
// produce zero values instead of NaN or Inf.
package analytics

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/newthinker/replay/internal/backtest"
)

// Returns computes the fractional change between consecutive equity values
// (0.01 is one percent). The first point has no return; a step whose
// previous value is not positive is skipped.
func Returns(curve []backtest.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if r, ok := stepReturn(curve, i); ok {
			out = append(out, r)
		}
	}
	return out
}

// stepReturn is the return attributed to point i
func stepReturn(curve []backtest.EquityPoint, i int) (float64, bool) {
	if i == 0 || curve[i-1].Value <= 0 {
		return 0, false
	}
	prev := curve[i-1].Value
	return (curve[i].Value - prev) / prev, true
}

func mean(data []float64) float64 {
	m, err := stats.Mean(data)
	if err != nil || !isFinite(m) {
		return 0
	}
	return m
}

// sampleStd is the n-1 standard deviation, 0 for fewer than two values
func sampleStd(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil || !isFinite(sd) {
		return 0
	}
	return sd
}

func sum(data []float64) float64 {
	s, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return s
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
