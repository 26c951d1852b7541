// Package feed loads cleaned bar series from files.
package feed

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/newthinker/replay/internal/core"
	"go.uber.org/zap"
)

// Source loads a complete bar series
type Source interface {
	Name() string
	Load(ctx context.Context) ([]core.OHLCV, error)
}

// Options describe how a file should be interpreted
type Options struct {
	Symbol   string // used when the file carries no symbol column
	Interval string
}

// Open picks a Source by file extension (.csv or .parquet)
func Open(path string, opts Options, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Symbol == "" {
		opts.Symbol = SymbolFromPath(path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return NewCSVSource(path, opts, logger), nil
	case ".parquet", ".pq":
		return NewParquetSource(path, opts, logger), nil
	default:
		return nil, core.WrapError(core.ErrInvalidParam, fmt.Errorf("unsupported data file %q", path))
	}
}

// SymbolFromPath derives a symbol from names like BTCUSDT_1m_clean.csv
func SymbolFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.IndexByte(base, '_'); i > 0 {
		base = base[:i]
	}
	return strings.ToUpper(base)
}

// finish fills defaults and validates a loaded series
func finish(bars []core.OHLCV, opts Options) ([]core.OHLCV, error) {
	for i := range bars {
		if bars[i].Symbol == "" {
			bars[i].Symbol = opts.Symbol
		}
		if bars[i].Interval == "" {
			bars[i].Interval = opts.Interval
		}
	}
	if err := core.ValidateSeries(bars); err != nil {
		return nil, err
	}
	return bars, nil
}
