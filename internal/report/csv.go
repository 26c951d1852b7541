package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/newthinker/replay/internal/analytics"
	"github.com/newthinker/replay/internal/backtest"
)

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func tstr(t time.Time) string {
	return t.Format(time.RFC3339)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TradesCSV renders the trade ledger
func TradesCSV(trades []backtest.Trade) ([]byte, error) {
	rows := make([][]string, len(trades))
	for i, t := range trades {
		rows[i] = []string{
			tstr(t.Time), string(t.Side), strconv.Itoa(t.Index),
			ftoa(t.Price), ftoa(t.Quantity), ftoa(t.Amount), ftoa(t.Balance),
			ftoa(t.Profit), ftoa(t.ProfitPct),
		}
	}
	return writeCSV([]string{"timestamp", "side", "index", "price", "quantity", "amount", "balance", "profit", "profit_pct"}, rows)
}

// EquityCSV renders the equity curve
func EquityCSV(curve []backtest.EquityPoint) ([]byte, error) {
	rows := make([][]string, len(curve))
	for i, p := range curve {
		rows[i] = []string{tstr(p.Time), ftoa(p.Value), ftoa(p.Price), ftoa(p.Cash), ftoa(p.Position)}
	}
	return writeCSV([]string{"timestamp", "portfolio_value", "price", "cash", "position"}, rows)
}

// PeriodsCSV renders one granularity's period table
func PeriodsCSV(records []analytics.PeriodRecord) ([]byte, error) {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.Label, tstr(r.Start), tstr(r.End),
			ftoa(r.StartValue), ftoa(r.EndValue), ftoa(r.TotalReturn), ftoa(r.Volatility),
			strconv.Itoa(r.Samples), ftoa(r.ReturnPct),
		}
	}
	return writeCSV([]string{"period", "start", "end", "start_value", "end_value", "total_return", "volatility", "samples", "return_pct"}, rows)
}

// DrawdownsCSV renders detected drawdown episodes
func DrawdownsCSV(episodes []analytics.DrawdownEpisode) ([]byte, error) {
	rows := make([][]string, len(episodes))
	for i, ep := range episodes {
		recovery := ""
		if ep.Recovery != nil {
			recovery = tstr(*ep.Recovery)
		}
		rows[i] = []string{
			tstr(ep.Start), tstr(ep.End), strconv.Itoa(ep.DurationDays),
			ftoa(ep.MaxDrawdownPct), recovery, strconv.FormatBool(ep.Ongoing),
		}
	}
	return writeCSV([]string{"start", "end", "duration_days", "max_drawdown_pct", "recovery", "ongoing"}, rows)
}
