// Package domain defines the shared value types for the systemtrade
// backtesting engine: bars, signals, orders, fills, and the enumerations
// and sentinel errors used across components.
package domain

import (
	"errors"
	"time"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrDataUnavailable is returned when a symbol has no bars yet, or fewer
// bars than a requested lookback window. During strategy warm-up this is
// expected and recovered by skipping the symbol for the current bar.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrInvalidOrder is returned for orders with a non-positive quantity or an
// unknown direction. The portfolio sizing step suppresses it rather than
// propagating it.
var ErrInvalidOrder = errors.New("invalid order")

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Bar is a single OHLCV observation for a symbol at a timestamp.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// BarField selects one value out of a Bar.
type BarField string

// Bar field identifiers.
const (
	FieldOpen   BarField = "open"
	FieldHigh   BarField = "high"
	FieldLow    BarField = "low"
	FieldClose  BarField = "close"
	FieldVolume BarField = "volume"
)

// Value returns the bar value selected by field. Unknown fields return the
// close price.
func (b Bar) Value(field BarField) float64 {
	switch field {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldVolume:
		return float64(b.Volume)
	default:
		return b.Close
	}
}

// Period is the bar granularity of a backtest run.
type Period string

// Bar period granularities.
const (
	PeriodDaily    Period = "D"
	PeriodHourly   Period = "H"
	PeriodMinutely Period = "M"
	PeriodSecondly Period = "S"
)

// BarsPerYear returns the approximate number of bars in one trading year
// for the period, used to annualise return statistics.
func (p Period) BarsPerYear() float64 {
	switch p {
	case PeriodHourly:
		return 252 * 6.5
	case PeriodMinutely:
		return 252 * 6.5 * 60
	case PeriodSecondly:
		return 252 * 6.5 * 60 * 60
	default:
		return 252
	}
}

// ---------------------------------------------------------------------------
// Signals
// ---------------------------------------------------------------------------

// SignalDirection is the action a strategy requests for a symbol.
type SignalDirection string

// Signal directions.
const (
	SignalLong  SignalDirection = "LONG"
	SignalShort SignalDirection = "SHORT"
	SignalExit  SignalDirection = "EXIT"
)

// Signal is a strategy's trading intent for one symbol at one bar.
// Strength scales the portfolio's allocation rule and lies in [0, 1].
type Signal struct {
	StrategyID string
	Symbol     string
	Timestamp  time.Time
	Direction  SignalDirection
	Strength   float64
}

// PositionState tracks whether a strategy is in the market for a symbol.
type PositionState string

// Per-symbol strategy states.
const (
	StateOut   PositionState = "OUT"
	StateLong  PositionState = "LONG"
	StateShort PositionState = "SHORT"
)

// ---------------------------------------------------------------------------
// Orders and fills
// ---------------------------------------------------------------------------

// OrderSide is the direction of an order.
type OrderSide string

// Order sides.
const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType distinguishes market from limit orders.
type OrderType string

// Order types.
const (
	OrderTypeMarket OrderType = "MKT"
	OrderTypeLimit  OrderType = "LMT"
)

// Order is a request to the execution handler. ID is assigned by the
// portfolio when the order is generated and is echoed back on the fill so
// that unmatched or replayed fills can be rejected.
type Order struct {
	ID       string
	Symbol   string
	Type     OrderType
	Quantity int
	Side     OrderSide
}

// Validate reports ErrInvalidOrder for a non-positive quantity or an
// unknown side.
func (o Order) Validate() error {
	if o.Quantity <= 0 {
		return ErrInvalidOrder
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return ErrInvalidOrder
	}
	return nil
}

// Fill is the realised execution of an order. Cost is the gross notional
// value of the trade (price × quantity), exclusive of commission.
type Fill struct {
	OrderID    string
	Timestamp  time.Time
	Symbol     string
	Exchange   string
	Quantity   int
	Side       OrderSide
	Cost       float64
	Commission float64
}
