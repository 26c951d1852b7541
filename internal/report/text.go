package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/replay/internal/analytics"
)

const rule = "=================================================="

// money formats f as $1,234.56
func money(f float64) string {
	if f < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -f)
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}

// textWriter remembers the first write error
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) line(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format+"\n", args...)
}

// WriteText renders a console summary of doc
func WriteText(w io.Writer, doc *Document) error {
	t := &textWriter{w: w}
	res := doc.Result

	t.line(rule)
	t.line("BACKTEST SUMMARY  %s on %s", doc.Strategy, res.Symbol)
	t.line(rule)
	if doc.RunID != "" {
		t.line("Run:              %s", doc.RunID)
	}
	t.line("Period:           %s to %s", res.Start.Format("2006-01-02 15:04"), res.End.Format("2006-01-02 15:04"))
	t.line("Bars:             %s", humanize.Comma(int64(res.Bars)))
	t.line("Initial balance:  %s", money(res.Config.InitialBalance))
	t.line("Final value:      %s", money(doc.FinalValue()))
	t.line("Total return:     %.2f%%", doc.Analytics.TotalReturnPct)

	if s := doc.Summary; s != nil {
		t.line("Total trades:     %d", s.TotalTrades)
		t.line("Winning trades:   %d (%.1f%%)", s.WinningTrades, s.WinRate)
		t.line("Losing trades:    %d", s.LosingTrades)
		t.line("Average profit:   %s (%.2f%%)", money(s.AvgProfit), s.AvgProfitPct)
		t.line("Max profit:       %s", money(s.MaxProfit))
		t.line("Max loss:         %s", money(s.MaxLoss))
	} else {
		t.line("No trades were closed")
	}

	an := doc.Analytics
	t.line("")
	t.line("Risk-adjusted metrics")
	t.line("  Sharpe ratio:    %.3f", an.Sharpe)
	t.line("  Sortino ratio:   %.3f", an.Sortino)
	t.line("  Max drawdown:    %.2f%%", an.MaxDrawdown.Pct)
	if an.MaxDrawdown.Start != nil && an.MaxDrawdown.End != nil {
		t.line("  Drawdown period: %s to %s", an.MaxDrawdown.Start.Format("2006-01-02"), an.MaxDrawdown.End.Format("2006-01-02"))
	}

	for _, g := range []analytics.Granularity{analytics.Monthly, analytics.Weekly, analytics.Yearly} {
		ps, ok := an.PeriodSummary[g]
		if !ok || ps.Periods == 0 {
			continue
		}
		unit := periodUnit(g)
		t.line("")
		t.line("%s performance (%d periods)", strings.ToUpper(string(g[:1]))+string(g[1:]), ps.Periods)
		t.line("  Best %-6s %s %.2f%%", unit+":", ps.Best, ps.BestPct)
		t.line("  Worst %-5s %s %.2f%%", unit+":", ps.Worst, ps.WorstPct)
		t.line("  Average:     %.2f%%", ps.MeanPct)
		t.line("  Win rate:    %.1f%%", ps.PositiveRatio)
	}

	if dd := an.DrawdownStats; dd.Count > 0 {
		t.line("")
		t.line("Drawdowns")
		t.line("  Periods:          %d", dd.Count)
		t.line("  Average duration: %.1f days", dd.AvgDurationDays)
		t.line("  Longest:          %d days", dd.MaxDurationDays)
		if dd.Ongoing > 0 {
			t.line("  Still open:       %d", dd.Ongoing)
		}
	}
	t.line(rule)
	return t.err
}

func periodUnit(g analytics.Granularity) string {
	switch g {
	case analytics.Weekly:
		return "week"
	case analytics.Yearly:
		return "year"
	default:
		return "month"
	}
}
