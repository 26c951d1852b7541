// Package report renders simulation output for people and for storage.
package report

import (
	"time"

	"github.com/newthinker/replay/internal/analytics"
	"github.com/newthinker/replay/internal/backtest"
)

// Document is everything known about one run
type Document struct {
	RunID       string            `json:"run_id" yaml:"run_id"`
	Strategy    string            `json:"strategy" yaml:"strategy"`
	Params      map[string]any    `json:"params,omitempty" yaml:"params,omitempty"`
	Source      string            `json:"source" yaml:"source"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Result      *backtest.Result  `json:"result" yaml:"result"`
	Summary     *backtest.Summary `json:"summary,omitempty" yaml:"summary,omitempty"` // nil when no trade was closed
	Analytics   analytics.Report  `json:"analytics" yaml:"analytics"`
}

// NewDocument assembles a document. summaryOK is the flag returned by
// Engine.Summary.
func NewDocument(runID, strategy string, params map[string]any, source string,
	res *backtest.Result, summary backtest.Summary, summaryOK bool, an analytics.Report) *Document {
	doc := &Document{
		RunID:       runID,
		Strategy:    strategy,
		Params:      params,
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		Result:      res,
		Analytics:   an,
	}
	if summaryOK {
		doc.Summary = &summary
	}
	return doc
}

// FinalValue is the last equity point's value, or the initial balance of an
// empty result
func (d *Document) FinalValue() float64 {
	if d.Result == nil {
		return 0
	}
	if n := len(d.Result.Equity); n > 0 {
		return d.Result.Equity[n-1].Value
	}
	return d.Result.Config.InitialBalance
}
