// Package runs keeps a history of simulation runs in SQLite.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/newthinker/replay/internal/core"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Status of a recorded run
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Record is one row of run history
type Record struct {
	ID             string
	Strategy       string
	Params         map[string]any
	Symbol         string
	Source         string
	StartedAt      time.Time
	Duration       time.Duration
	Status         Status
	Error          string
	Bars           int
	Trades         int
	InitialBalance float64
	FinalValue     float64
	TotalReturnPct float64
	WinRate        float64
	Sharpe         float64
	Sortino        float64
	MaxDrawdownPct float64
	ReportLocation string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	strategy         TEXT NOT NULL,
	params           TEXT NOT NULL DEFAULT '{}',
	symbol           TEXT NOT NULL DEFAULT '',
	source           TEXT NOT NULL DEFAULT '',
	started_at       INTEGER NOT NULL,
	duration_ms      INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL,
	error            TEXT NOT NULL DEFAULT '',
	bars             INTEGER NOT NULL DEFAULT 0,
	trades           INTEGER NOT NULL DEFAULT 0,
	initial_balance  REAL NOT NULL DEFAULT 0,
	final_value      REAL NOT NULL DEFAULT 0,
	total_return_pct REAL NOT NULL DEFAULT 0,
	win_rate         REAL NOT NULL DEFAULT 0,
	sharpe           REAL NOT NULL DEFAULT 0,
	sortino          REAL NOT NULL DEFAULT 0,
	max_drawdown_pct REAL NOT NULL DEFAULT 0,
	report_location  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

const columns = `id, strategy, params, symbol, source, started_at, duration_ms, status, error,
	bars, trades, initial_balance, final_value, total_return_pct, win_rate,
	sharpe, sortino, max_drawdown_pct, report_location`

// SQLiteStore stores run records in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// The special path ":memory:" keeps history in memory.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	// a single connection keeps :memory: databases shared and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("applying schema: %w", err))
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the record with the same ID
func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
	if r.ID == "" {
		return core.WrapError(core.ErrInvalidParam, errors.New("run id is required"))
	}
	params := r.Params
	if params == nil {
		params = map[string]any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("encoding params: %w", err))
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Strategy, string(encoded), r.Symbol, r.Source,
		r.StartedAt.UnixMilli(), r.Duration.Milliseconds(), string(r.Status), r.Error,
		r.Bars, r.Trades, r.InitialBalance, r.FinalValue, r.TotalReturnPct, r.WinRate,
		r.Sharpe, r.Sortino, r.MaxDrawdownPct, r.ReportLocation,
	)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("saving run %s: %w", r.ID, err))
	}
	return nil
}

// Get returns the record with id or core.ErrRunNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM runs WHERE id = ?`, id)
	r, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, core.WrapError(core.ErrRunNotFound, fmt.Errorf("%q", id))
	}
	if err != nil {
		return Record{}, core.WrapError(core.ErrStorageFailed, err)
	}
	return r, nil
}

// List returns the most recent runs first. limit <= 0 returns all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + columns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (Record, error) {
	var (
		r          Record
		params     string
		status     string
		startedAt  int64
		durationMs int64
	)
	err := sc.Scan(
		&r.ID, &r.Strategy, &params, &r.Symbol, &r.Source,
		&startedAt, &durationMs, &status, &r.Error,
		&r.Bars, &r.Trades, &r.InitialBalance, &r.FinalValue, &r.TotalReturnPct, &r.WinRate,
		&r.Sharpe, &r.Sortino, &r.MaxDrawdownPct, &r.ReportLocation,
	)
	if err != nil {
		return Record{}, err
	}
	r.StartedAt = time.UnixMilli(startedAt).UTC()
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.Status = Status(status)
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return Record{}, fmt.Errorf("decoding params of %s: %w", r.ID, err)
	}
	return r, nil
}
