// Package execution defines the order execution contract and provides a
// simulated implementation for backtesting.
package execution

import (
	"systemtrade/internal/domain"
)

// Handler turns an order into exactly one fill. A simulated handler fills
// against the current bar; a live handler would route to a brokerage.
type Handler interface {
	// Name returns the handler identifier (e.g. "simulated").
	Name() string

	// ExecuteOrder executes the order and returns the resulting fill.
	ExecuteOrder(order domain.Order) (domain.Fill, error)
}
