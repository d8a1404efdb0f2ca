// Package store persists bar history and completed run results. Bars live
// in Parquet files on disk, run results and their signals in SQLite.
package store

import (
	"context"
	"time"

	"systemtrade/internal/domain"
	"systemtrade/internal/portfolio"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars under the given market, merging
	// with any bars already stored.
	WriteBars(ctx context.Context, bars []domain.Bar, market string) error

	// ReadBars returns bars for the given symbol and market within
	// [start, end], sorted by timestamp.
	ReadBars(ctx context.Context, symbol string, market string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market string) ([]string, error)
}

// Run is one completed backtest: its configuration, performance summary,
// and equity curve.
type Run struct {
	ID        string
	Strategy  string
	Symbols   []string
	Market    string
	Period    domain.Period
	StartedAt time.Time

	Summary     portfolio.Summary
	EquityCurve []EquityPoint
}

// EquityPoint is one row of a persisted equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Cash      float64
	Total     float64
}

// RunStore persists and retrieves backtest runs.
type RunStore interface {
	// SaveRun inserts a run and its equity curve.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a single run by its ID, equity curve included.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	// The returned runs carry no equity curve.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// SignalStore persists and retrieves the signals a run emitted.
type SignalStore interface {
	// SaveSignals inserts the signals emitted during a run.
	SaveSignals(ctx context.Context, runID string, signals []domain.Signal) error

	// ListSignals returns a run's signals in emission order.
	ListSignals(ctx context.Context, runID string) ([]domain.Signal, error)
}
