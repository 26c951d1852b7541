package report

import (
	"fmt"

	"github.com/newthinker/replay/internal/analytics"
)

// Artifact is one named file produced for a run
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

const csvType = "text/csv; charset=utf-8"

// Artifacts renders the report in every requested format, plus the CSV
// tables (trades, equity, drawdowns, one file per period granularity) when
// tables is set.
func Artifacts(doc *Document, formats []Format, tables bool) ([]Artifact, error) {
	var out []Artifact
	for _, f := range formats {
		data, err := Encode(doc, f)
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{Name: "report" + f.Ext(), ContentType: f.ContentType(), Data: data})
	}
	if !tables {
		return out, nil
	}

	add := func(name string, data []byte, err error) error {
		if err != nil {
			return fmt.Errorf("rendering %s: %w", name, err)
		}
		out = append(out, Artifact{Name: name, ContentType: csvType, Data: data})
		return nil
	}

	data, err := TradesCSV(doc.Result.Trades)
	if err := add("trades.csv", data, err); err != nil {
		return nil, err
	}
	data, err = EquityCSV(doc.Result.Equity)
	if err := add("equity.csv", data, err); err != nil {
		return nil, err
	}
	data, err = DrawdownsCSV(doc.Analytics.Drawdowns)
	if err := add("drawdowns.csv", data, err); err != nil {
		return nil, err
	}
	for _, g := range []analytics.Granularity{analytics.Weekly, analytics.Monthly, analytics.Yearly} {
		records, ok := doc.Analytics.Periods[g]
		if !ok {
			continue
		}
		data, err = PeriodsCSV(records)
		if err := add(string(g)+".csv", data, err); err != nil {
			return nil, err
		}
	}
	return out, nil
}
