// Package data defines the market data handler contract consumed by
// strategies and the portfolio, and provides an in-memory historic replay
// implementation for backtesting.
package data

import (
	"time"

	"systemtrade/internal/domain"
)

// Handler supplies bar data to the rest of the engine. UpdateBars advances
// the handler by exactly one time step; the backtest loop emits one Market
// event per successful advance. The Latest* accessors only ever expose bars
// up to the current step, so consumers cannot look ahead.
type Handler interface {
	// Symbols returns the ordered symbol universe of this run.
	Symbols() []string

	// UpdateBars advances one time step. It returns false when the data is
	// exhausted and no step was taken.
	UpdateBars() bool

	// LatestBarValue returns the requested field of the most recent bar for
	// symbol. It returns domain.ErrDataUnavailable if the symbol is unknown
	// or has no bars yet.
	LatestBarValue(symbol string, field domain.BarField) (float64, error)

	// LatestBarsValues returns the requested field of the last n bars for
	// symbol, oldest first. During warm-up the returned slice is shorter
	// than n. It returns domain.ErrDataUnavailable if the symbol is unknown
	// or has no bars yet.
	LatestBarsValues(symbol string, field domain.BarField, n int) ([]float64, error)

	// LatestBarTime returns the timestamp of the most recent bar for
	// symbol, or domain.ErrDataUnavailable.
	LatestBarTime(symbol string) (time.Time, error)
}
