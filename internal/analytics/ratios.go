package analytics

import (
	"math"

	"github.com/newthinker/replay/internal/backtest"
)

// excessReturns subtracts the per-period risk free rate from each return
func excessReturns(curve []backtest.EquityPoint, riskFree float64, periods int) []float64 {
	if len(curve) < 2 || periods <= 0 {
		return nil
	}
	rf := riskFree / float64(periods)
	returns := Returns(curve)
	for i := range returns {
		returns[i] -= rf
	}
	return returns
}

// SharpeRatio annualizes mean excess return over its sample standard
// deviation. riskFree is the annual rate, periods the number of curve steps
// per year. Returns 0 when fewer than two returns exist or the deviation
// is zero.
func SharpeRatio(curve []backtest.EquityPoint, riskFree float64, periods int) float64 {
	excess := excessReturns(curve, riskFree, periods)
	if len(excess) < 2 {
		return 0
	}
	sd := sampleStd(excess)
	if sd == 0 {
		return 0
	}
	return finiteOrZero(mean(excess) / sd * math.Sqrt(float64(periods)))
}

// SortinoRatio is SharpeRatio with only the negative excess returns in the
// denominator. Returns 0 when fewer than two of them exist.
func SortinoRatio(curve []backtest.EquityPoint, riskFree float64, periods int) float64 {
	excess := excessReturns(curve, riskFree, periods)
	if len(excess) < 2 {
		return 0
	}

	var downside []float64
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	sd := sampleStd(downside)
	if sd == 0 {
		return 0
	}
	return finiteOrZero(mean(excess) / sd * math.Sqrt(float64(periods)))
}

func finiteOrZero(f float64) float64 {
	if !isFinite(f) {
		return 0
	}
	return f
}
