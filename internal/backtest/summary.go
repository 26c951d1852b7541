package backtest

import (
	"github.com/montanaflynn/stats"
)

// Summary derives trade statistics from the ledger. The boolean is false
// when no position was ever closed, in which case there is nothing to
// summarize and the returned Summary is empty.
func (e *Engine) Summary() (Summary, bool) {
	return Summarize(e.trades, e.cfg.InitialBalance, e.State())
}

// Summarize computes Summary for a ledger produced with the given initial
// balance that ended in final
func Summarize(trades []Trade, initialBalance float64, final State) (Summary, bool) {
	var profits, profitPcts []float64
	var winning, losing int

	for _, t := range trades {
		if t.Side != SideSell {
			continue
		}
		profits = append(profits, t.Profit)
		profitPcts = append(profitPcts, t.ProfitPct)
		switch {
		case t.IsWin():
			winning++
		case t.IsLoss():
			losing++
		}
	}
	if len(profits) == 0 {
		return Summary{}, false
	}

	total, _ := stats.Sum(profits)
	avg, _ := stats.Mean(profits)
	avgPct, _ := stats.Mean(profitPcts)
	best, _ := stats.Max(profits)
	worst, _ := stats.Min(profits)

	// marked to the price of the last trade, the way the ledger last saw it
	last := trades[len(trades)-1]
	value := final.Balance + final.Position*last.Price

	return Summary{
		InitialBalance: initialBalance,
		TotalTrades:    len(profits),
		WinningTrades:  winning,
		LosingTrades:   losing,
		WinRate:        float64(winning) / float64(len(profits)) * 100,
		TotalProfit:    total,
		TotalReturnPct: (value - initialBalance) / initialBalance * 100,
		AvgProfit:      avg,
		AvgProfitPct:   avgPct,
		MaxProfit:      best,
		MaxLoss:        worst,
		FinalBalance:   final.Balance,
		FinalPosition:  final.Position,
	}, true
}
