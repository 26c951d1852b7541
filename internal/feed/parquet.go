package feed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/newthinker/replay/internal/core"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

// BarRecord is the on-disk Parquet schema for bars
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Interval  string  `parquet:"interval"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetSource reads bars from a Parquet file written with BarRecord rows
type ParquetSource struct {
	path   string
	opts   Options
	logger *zap.Logger
}

// NewParquetSource creates a Parquet source
func NewParquetSource(path string, opts Options, logger *zap.Logger) *ParquetSource {
	return &ParquetSource{path: path, opts: opts, logger: logger}
}

// Name returns the source identifier
func (s *ParquetSource) Name() string {
	return "parquet:" + s.path
}

// Load reads and validates the whole file. Rows are used in file order.
func (s *ParquetSource) Load(ctx context.Context) ([]core.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := parquet.ReadFile[BarRecord](s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.WrapError(core.ErrNoData, err)
		}
		return nil, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("reading %s: %w", s.path, err))
	}

	bars := make([]core.OHLCV, len(rows))
	for i, r := range rows {
		bars[i] = core.OHLCV{
			Symbol:   r.Symbol,
			Interval: r.Interval,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			Time:     time.UnixMilli(r.Timestamp).UTC(),
		}
	}
	bars, err = finish(bars, s.opts)
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

// WriteParquet stores bars at path, creating parent directories
func WriteParquet(path string, bars []core.OHLCV) error {
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Symbol:    b.Symbol,
			Interval:  b.Interval,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}
