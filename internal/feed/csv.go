package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/replay/internal/core"
	"go.uber.org/zap"
)

var timeColumns = []string{"timestamp", "open_time", "time", "date", "datetime"}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CSVSource reads bars from a CSV file with a header row. Required columns
// are a timestamp (timestamp, open_time, time, date or datetime) and open,
// high, low, close, volume; symbol and interval are optional.
type CSVSource struct {
	path   string
	opts   Options
	logger *zap.Logger
}

// NewCSVSource creates a CSV source
func NewCSVSource(path string, opts Options, logger *zap.Logger) *CSVSource {
	return &CSVSource{path: path, opts: opts, logger: logger}
}

// Name returns the source identifier
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Load reads and validates the whole file
func (s *CSVSource) Load(ctx context.Context) ([]core.OHLCV, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, core.WrapError(core.ErrNoData, err)
	}
	defer f.Close()

	bars, err := ReadCSV(ctx, f, s.opts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded bars",
		zap.String("source", s.Name()),
		zap.String("symbol", s.opts.Symbol),
		zap.Int("bars", len(bars)),
	)
	return bars, nil
}

// ReadCSV parses bars from r
func ReadCSV(ctx context.Context, r io.Reader, opts Options) ([]core.OHLCV, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.WrapError(core.ErrInvalidSeries, core.ErrNoData)
	}
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidSeries, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []core.OHLCV
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidSeries, err)
		}
		bar, err := cols.parse(record)
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("line %d: %w", line, err))
		}
		bars = append(bars, bar)
	}
	return finish(bars, opts)
}

type columns struct {
	time, open, high, low, close, volume int
	symbol, interval                     int
}

func mapColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	lookup := func(name string) int {
		if i, ok := idx[name]; ok {
			return i
		}
		return -1
	}

	c := columns{
		time:     -1,
		open:     lookup("open"),
		high:     lookup("high"),
		low:      lookup("low"),
		close:    lookup("close"),
		volume:   lookup("volume"),
		symbol:   lookup("symbol"),
		interval: lookup("interval"),
	}
	for _, name := range timeColumns {
		if i := lookup(name); i >= 0 {
			c.time = i
			break
		}
	}

	var missing []string
	for name, i := range map[string]int{"timestamp": c.time, "open": c.open, "high": c.high, "low": c.low, "close": c.close, "volume": c.volume} {
		if i < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return c, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("missing columns: %s", strings.Join(missing, ", ")))
	}
	return c, nil
}

func (c columns) parse(record []string) (core.OHLCV, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ts, err := parseTime(field(c.time))
	if err != nil {
		return core.OHLCV{}, err
	}
	bar := core.OHLCV{Symbol: field(c.symbol), Interval: field(c.interval), Time: ts}

	for _, f := range []struct {
		name string
		col  int
		dst  *float64
	}{
		{"open", c.open, &bar.Open},
		{"high", c.high, &bar.High},
		{"low", c.low, &bar.Low},
		{"close", c.close, &bar.Close},
		{"volume", c.volume, &bar.Volume},
	} {
		v, err := strconv.ParseFloat(field(f.col), 64)
		if err != nil {
			return core.OHLCV{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return bar, nil
}

// parseTime accepts the layouts above or a Unix epoch in seconds or
// milliseconds. Values without a zone are taken as UTC.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
