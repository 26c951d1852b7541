package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/replay/internal/backtest"
	"github.com/newthinker/replay/internal/core"
)

// Granularity selects calendar buckets for period aggregation
type Granularity string

const (
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// ParseGranularity accepts the names used in configuration
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Weekly, Monthly, Yearly:
		return g, nil
	default:
		return "", core.WrapError(core.ErrInvalidParam, fmt.Errorf("unknown granularity %q", s))
	}
}

// bucket returns the calendar bounds [start, end) containing t and its label.
// Bounds are computed in t's own location.
func (g Granularity) bucket(t time.Time) (start, end time.Time, label string) {
	y, m, d := t.Date()
	loc := t.Location()

	switch g {
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7 // days since Monday
		start = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 7)
		label = start.Format("2006-01-02") + "/" + end.AddDate(0, 0, -1).Format("2006-01-02")
	case Yearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
		label = start.Format("2006")
	default:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
		label = start.Format("2006-01")
	}
	return start, end, label
}

// PeriodRecord holds the performance of one calendar bucket
type PeriodRecord struct {
	Label       string    `json:"label" yaml:"label"`
	Start       time.Time `json:"start" yaml:"start"` // inclusive bucket bound
	End         time.Time `json:"end" yaml:"end"`     // exclusive bucket bound
	StartValue  float64   `json:"start_value" yaml:"start_value"`
	EndValue    float64   `json:"end_value" yaml:"end_value"`
	TotalReturn float64   `json:"total_return" yaml:"total_return"` // sum of step returns
	Volatility  float64   `json:"volatility" yaml:"volatility"`
	Samples     int       `json:"samples" yaml:"samples"`
	ReturnPct   float64   `json:"return_pct" yaml:"return_pct"`
}

// PeriodSummary ranks a set of period records
type PeriodSummary struct {
	Periods       int     `json:"periods" yaml:"periods"`
	Best          string  `json:"best" yaml:"best"`
	BestPct       float64 `json:"best_pct" yaml:"best_pct"`
	Worst         string  `json:"worst" yaml:"worst"`
	WorstPct      float64 `json:"worst_pct" yaml:"worst_pct"`
	MeanPct       float64 `json:"mean_pct" yaml:"mean_pct"`
	PositiveRatio float64 `json:"positive_ratio" yaml:"positive_ratio"` // percent of periods with a gain
}

// AggregatePeriods groups the curve into consecutive calendar buckets.
// Step returns belong to the bucket of their later point. Buckets without
// points never appear.
func AggregatePeriods(curve []backtest.EquityPoint, g Granularity) []PeriodRecord {
	var (
		records []PeriodRecord
		current *PeriodRecord
		returns []float64
	)
	flush := func() {
		if current == nil {
			return
		}
		current.TotalReturn = sum(returns)
		current.Volatility = sampleStd(returns)
		if current.StartValue > 0 {
			current.ReturnPct = (current.EndValue - current.StartValue) / current.StartValue * 100
		}
		records = append(records, *current)
	}

	for i, p := range curve {
		start, end, label := g.bucket(p.Time)
		if current == nil || label != current.Label {
			flush()
			current = &PeriodRecord{Label: label, Start: start, End: end, StartValue: p.Value}
			returns = returns[:0]
		}
		current.EndValue = p.Value
		current.Samples++
		if r, ok := stepReturn(curve, i); ok {
			returns = append(returns, r)
		}
	}
	flush()
	return records
}

// SummarizePeriods picks the best and worst bucket and the share of
// positive ones. The first record wins ties.
func SummarizePeriods(records []PeriodRecord) PeriodSummary {
	if len(records) == 0 {
		return PeriodSummary{}
	}

	s := PeriodSummary{
		Periods:  len(records),
		Best:     records[0].Label,
		BestPct:  records[0].ReturnPct,
		Worst:    records[0].Label,
		WorstPct: records[0].ReturnPct,
	}
	pcts := make([]float64, len(records))
	positive := 0
	for i, r := range records {
		pcts[i] = r.ReturnPct
		if r.ReturnPct > 0 {
			positive++
		}
		if r.ReturnPct > s.BestPct {
			s.Best, s.BestPct = r.Label, r.ReturnPct
		}
		if r.ReturnPct < s.WorstPct {
			s.Worst, s.WorstPct = r.Label, r.ReturnPct
		}
	}
	s.MeanPct = mean(pcts)
	s.PositiveRatio = float64(positive) / float64(len(records)) * 100
	return s
}
