package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"systemtrade/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ RunStore = (*SQLiteStore)(nil)
var _ SignalStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore and SignalStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	strategy          TEXT NOT NULL,
	symbols           TEXT NOT NULL,
	market            TEXT NOT NULL,
	period            TEXT NOT NULL,
	started_at        INTEGER NOT NULL,
	initial_capital   REAL NOT NULL,
	final_equity      REAL NOT NULL,
	total_return      REAL NOT NULL,
	sharpe_ratio      REAL NOT NULL,
	max_drawdown      REAL NOT NULL,
	drawdown_duration INTEGER NOT NULL,
	total_trades      INTEGER NOT NULL,
	win_rate          REAL NOT NULL,
	profit_factor     REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS equity_curve (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	timestamp INTEGER NOT NULL,
	cash      REAL NOT NULL,
	total     REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_equity_curve_run ON equity_curve(run_id, timestamp);

CREATE TABLE IF NOT EXISTS signals (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	seq         INTEGER NOT NULL,
	strategy_id TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	timestamp   INTEGER NOT NULL,
	direction   TEXT NOT NULL,
	strength    REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_run ON signals(run_id, seq);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// RunStore implementation
// ---------------------------------------------------------------------------

// SaveRun inserts a run and its equity curve in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, strategy, symbols, market, period, started_at,
			initial_capital, final_equity, total_return, sharpe_ratio,
			max_drawdown, drawdown_duration, total_trades, win_rate, profit_factor
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, strings.Join(run.Symbols, ","), run.Market,
		string(run.Period), run.StartedAt.UnixMilli(),
		run.Summary.InitialCapital, run.Summary.FinalEquity,
		run.Summary.TotalReturn, run.Summary.SharpeRatio,
		run.Summary.MaxDrawdown, run.Summary.DrawdownDuration,
		run.Summary.TotalTrades, run.Summary.WinRate, run.Summary.ProfitFactor,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO equity_curve (run_id, timestamp, cash, total)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, pt := range run.EquityCurve {
		if _, err := stmt.ExecContext(ctx, run.ID, pt.Timestamp.UnixMilli(), pt.Cash, pt.Total); err != nil {
			return fmt.Errorf("inserting equity point for %s: %w", run.ID, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a single run by its ID, equity curve included. A missing
// run returns sql.ErrNoRows.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, strategy, symbols, market, period, started_at,
		       initial_capital, final_equity, total_return, sharpe_ratio,
		       max_drawdown, drawdown_duration, total_trades, win_rate, profit_factor
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, cash, total FROM equity_curve
		WHERE run_id = ? ORDER BY timestamp`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts int64
		var pt EquityPoint
		if err := rows.Scan(&ts, &pt.Cash, &pt.Total); err != nil {
			return nil, err
		}
		pt.Timestamp = time.UnixMilli(ts).UTC()
		run.EquityCurve = append(run.EquityCurve, pt)
	}
	return run, rows.Err()
}

// ListRuns returns the most recent runs, newest first, without equity curves.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, symbols, market, period, started_at,
		       initial_capital, final_equity, total_return, sharpe_ratio,
		       max_drawdown, drawdown_duration, total_trades, win_rate, profit_factor
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		symbols   string
		period    string
		startedAt int64
	)
	err := row.Scan(
		&run.ID, &run.Strategy, &symbols, &run.Market, &period, &startedAt,
		&run.Summary.InitialCapital, &run.Summary.FinalEquity,
		&run.Summary.TotalReturn, &run.Summary.SharpeRatio,
		&run.Summary.MaxDrawdown, &run.Summary.DrawdownDuration,
		&run.Summary.TotalTrades, &run.Summary.WinRate, &run.Summary.ProfitFactor,
	)
	if err != nil {
		return nil, err
	}
	if symbols != "" {
		run.Symbols = strings.Split(symbols, ",")
	}
	run.Period = domain.Period(period)
	run.StartedAt = time.UnixMilli(startedAt).UTC()
	return &run, nil
}

// ---------------------------------------------------------------------------
// SignalStore implementation
// ---------------------------------------------------------------------------

// SaveSignals inserts the signals emitted during a run, preserving their
// emission order.
func (s *SQLiteStore) SaveSignals(ctx context.Context, runID string, signals []domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO signals (run_id, seq, strategy_id, symbol, timestamp, direction, strength)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, sig := range signals {
		_, err := stmt.ExecContext(ctx, runID, i, sig.StrategyID, sig.Symbol,
			sig.Timestamp.UnixMilli(), string(sig.Direction), sig.Strength)
		if err != nil {
			return fmt.Errorf("inserting signal %d for %s: %w", i, runID, err)
		}
	}
	return tx.Commit()
}

// ListSignals returns a run's signals in emission order.
func (s *SQLiteStore) ListSignals(ctx context.Context, runID string) ([]domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy_id, symbol, timestamp, direction, strength
		FROM signals WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var (
			sig       domain.Signal
			ts        int64
			direction string
		)
		if err := rows.Scan(&sig.StrategyID, &sig.Symbol, &ts, &direction, &sig.Strength); err != nil {
			return nil, err
		}
		sig.Timestamp = time.UnixMilli(ts).UTC()
		sig.Direction = domain.SignalDirection(direction)
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}
