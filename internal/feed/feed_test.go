package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/replay/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleCSV = `open_time,open,high,low,close,volume
2024-01-01 00:00:00,100,101,99,100.5,12.5
2024-01-01 00:01:00,100.5,102,100,101.5,8
2024-01-01 00:02:00,101.5,101.5,98,99,20
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	bars, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV), Options{Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, "BTCUSDT", bars[0].Symbol)
	assert.Equal(t, "1m", bars[0].Interval)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 12.5, bars[0].Volume)
	assert.Equal(t, time.Minute, bars[1].Time.Sub(bars[0].Time))
}

func TestReadCSV_ColumnVariants(t *testing.T) {
	data := "Symbol, Timestamp, Open, High, Low, Close, Volume\n" +
		"ETHUSDT, 1704067200, 1, 1, 1, 1, 0\n" +
		"ETHUSDT, 1704153600000, 2, 2, 2, 2, 0\n"

	bars, err := ReadCSV(context.Background(), strings.NewReader(data), Options{Symbol: "IGNORED"})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "ETHUSDT", bars[0].Symbol)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[1].Time)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"header only", "timestamp,open,high,low,close,volume\n"},
		{"missing close", "timestamp,open,high,low,volume\n2024-01-01,1,1,1,1\n"},
		{"bad number", "timestamp,open,high,low,close,volume\n2024-01-01,1,1,1,abc,1\n"},
		{"bad time", "timestamp,open,high,low,close,volume\nyesterday,1,1,1,1,1\n"},
		{"out of order", "date,open,high,low,close,volume\n2024-01-02,1,1,1,1,1\n2024-01-01,1,1,1,1,1\n"},
		{"zero close", "date,open,high,low,close,volume\n2024-01-02,1,1,1,0,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), strings.NewReader(tt.data), Options{})
			assert.ErrorIs(t, err, core.ErrInvalidSeries)
		})
	}
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader(sampleCSV), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	csvPath := writeFile(t, "BTCUSDT_1m_clean.csv", sampleCSV)

	src, err := Open(csvPath, Options{Interval: "1m"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, src)

	bars, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, bars, 3)
	assert.Equal(t, "BTCUSDT", bars[0].Symbol)

	src, err = Open("bars.PARQUET", Options{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ParquetSource{}, src)

	_, err = Open("bars.xlsx", Options{}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidParam)
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), Options{}, zap.NewNop())
	_, err := src.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestSymbolFromPath(t *testing.T) {
	assert.Equal(t, "BTCUSDT", SymbolFromPath("data/processed/BTCUSDT_1m_clean.csv"))
	assert.Equal(t, "AAPL", SymbolFromPath("aapl.parquet"))
}

func TestParquetRoundTrip(t *testing.T) {
	bars, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV), Options{Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "btc.parquet")
	require.NoError(t, WriteParquet(path, bars))

	loaded, err := NewParquetSource(path, Options{}, zap.NewNop()).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, len(bars))
	for i := range bars {
		assert.True(t, bars[i].Time.Equal(loaded[i].Time))
		assert.Equal(t, bars[i].Close, loaded[i].Close)
		assert.Equal(t, bars[i].Volume, loaded[i].Volume)
		assert.Equal(t, "BTCUSDT", loaded[i].Symbol)
	}
}

func TestParquetSource_MissingFile(t *testing.T) {
	src := NewParquetSource(filepath.Join(t.TempDir(), "nope.parquet"), Options{}, zap.NewNop())
	_, err := src.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrNoData)
}
