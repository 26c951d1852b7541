package analytics

import (
	"math"
	"time"

	"github.com/newthinker/replay/internal/backtest"
)

// Drawdown is the deepest peak-to-trough decline of a curve
type Drawdown struct {
	Fraction    float64    `json:"fraction" yaml:"fraction"` // negative, e.g. -0.2
	Pct         float64    `json:"pct" yaml:"pct"`
	PeakIndex   int        `json:"peak_index" yaml:"peak_index"`
	TroughIndex int        `json:"trough_index" yaml:"trough_index"`
	Start       *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End         *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// DrawdownEpisode is one contiguous run of bars below the drawdown threshold
type DrawdownEpisode struct {
	Start          time.Time  `json:"start" yaml:"start"`
	End            time.Time  `json:"end" yaml:"end"` // last bar still in drawdown
	StartIndex     int        `json:"start_index" yaml:"start_index"`
	EndIndex       int        `json:"end_index" yaml:"end_index"`
	DurationDays   int        `json:"duration_days" yaml:"duration_days"`
	MaxDrawdownPct float64    `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	Recovery       *time.Time `json:"recovery,omitempty" yaml:"recovery,omitempty"` // nil while ongoing
	Ongoing        bool       `json:"ongoing" yaml:"ongoing"`
}

// DrawdownSummary aggregates detected episodes
type DrawdownSummary struct {
	Count           int     `json:"count" yaml:"count"`
	Ongoing         int     `json:"ongoing" yaml:"ongoing"`
	AvgDurationDays float64 `json:"avg_duration_days" yaml:"avg_duration_days"`
	MaxDurationDays int     `json:"max_duration_days" yaml:"max_duration_days"`
	DeepestPct      float64 `json:"deepest_pct" yaml:"deepest_pct"`
}

// runningPeaks returns the running maximum of the curve's values
func runningPeaks(curve []backtest.EquityPoint) []float64 {
	peaks := make([]float64, len(curve))
	peak := math.Inf(-1)
	for i, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		peaks[i] = peak
	}
	return peaks
}

// DrawdownSeries returns, for every point, its decline from the running
// peak in percent (0 at a new high, negative below it).
func DrawdownSeries(curve []backtest.EquityPoint) []float64 {
	peaks := runningPeaks(curve)
	out := make([]float64, len(curve))
	for i, p := range curve {
		if peaks[i] > 0 {
			out[i] = (p.Value - peaks[i]) / peaks[i] * 100
		}
	}
	return out
}

// MaxDrawdown finds the deepest decline. The trough is the first point at
// the minimum; the peak is the latest point at or before the trough whose
// value equals the running peak there. An empty or never-declining curve
// yields the zero Drawdown.
func MaxDrawdown(curve []backtest.EquityPoint) Drawdown {
	if len(curve) == 0 {
		return Drawdown{}
	}

	peaks := runningPeaks(curve)
	trough, worst := 0, 0.0
	for i, p := range curve {
		if peaks[i] <= 0 {
			continue
		}
		if dd := (p.Value - peaks[i]) / peaks[i]; dd < worst {
			trough, worst = i, dd
		}
	}
	if worst == 0 {
		return Drawdown{}
	}

	peak := trough
	for peak > 0 && curve[peak].Value != peaks[trough] {
		peak--
	}

	start, end := curve[peak].Time, curve[trough].Time
	return Drawdown{
		Fraction:    worst,
		Pct:         worst * 100,
		PeakIndex:   peak,
		TroughIndex: trough,
		Start:       &start,
		End:         &end,
	}
}

// DetectDrawdowns scans the drawdown series for runs strictly below
// -thresholdPct. A run still open at the last point is reported with
// Ongoing set and no Recovery.
func DetectDrawdowns(curve []backtest.EquityPoint, thresholdPct float64) []DrawdownEpisode {
	series := DrawdownSeries(curve)
	var episodes []DrawdownEpisode

	first := -1
	low := 0.0
	closeRun := func(last int, ongoing bool) {
		ep := DrawdownEpisode{
			Start:          curve[first].Time,
			End:            curve[last].Time,
			StartIndex:     first,
			EndIndex:       last,
			DurationDays:   int(curve[last].Time.Sub(curve[first].Time) / (24 * time.Hour)),
			MaxDrawdownPct: low,
			Ongoing:        ongoing,
		}
		if !ongoing {
			recovery := ep.End
			ep.Recovery = &recovery
		}
		episodes = append(episodes, ep)
		first = -1
	}

	for i, dd := range series {
		in := dd < -thresholdPct
		switch {
		case in && first < 0:
			first, low = i, dd
		case in:
			low = math.Min(low, dd)
		case first >= 0:
			closeRun(i-1, false)
		}
	}
	if first >= 0 {
		closeRun(len(series)-1, true)
	}
	return episodes
}

// DrawdownStats summarizes episodes; ongoing ones count like closed ones
func DrawdownStats(episodes []DrawdownEpisode) DrawdownSummary {
	var s DrawdownSummary
	if len(episodes) == 0 {
		return s
	}

	durations := make([]float64, len(episodes))
	for i, ep := range episodes {
		durations[i] = float64(ep.DurationDays)
		if ep.DurationDays > s.MaxDurationDays {
			s.MaxDurationDays = ep.DurationDays
		}
		if ep.MaxDrawdownPct < s.DeepestPct {
			s.DeepestPct = ep.MaxDrawdownPct
		}
		if ep.Ongoing {
			s.Ongoing++
		}
	}
	s.Count = len(episodes)
	s.AvgDurationDays = mean(durations)
	return s
}
