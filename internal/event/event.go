// Package event defines the typed events that flow through a backtest and
// the FIFO queue that carries them. Every state change in the engine is
// driven by one of four event kinds: a Market event announces a new bar,
// a Signal event carries a strategy's trading intent, an Order event is the
// portfolio's sized request to the execution handler, and a Fill event is
// the realised execution that updates the books.
package event

import "systemtrade/internal/domain"

// Kind discriminates the event variants.
type Kind string

// Event kinds.
const (
	KindMarket Kind = "MARKET"
	KindSignal Kind = "SIGNAL"
	KindOrder  Kind = "ORDER"
	KindFill   Kind = "FILL"
)

// Event is implemented by all queue payloads.
type Event interface {
	Kind() Kind
}

// Market announces that a new bar is available for all symbols. It carries
// no payload; consumers read the bar from the data handler.
type Market struct{}

// Kind returns KindMarket.
func (Market) Kind() Kind { return KindMarket }

// Signal wraps a strategy signal for queue transport.
type Signal struct {
	domain.Signal
}

// Kind returns KindSignal.
func (Signal) Kind() Kind { return KindSignal }

// Order wraps a sized order for queue transport.
type Order struct {
	domain.Order
}

// Kind returns KindOrder.
func (Order) Kind() Kind { return KindOrder }

// Fill wraps an execution fill for queue transport.
type Fill struct {
	domain.Fill
}

// Kind returns KindFill.
func (Fill) Kind() Kind { return KindFill }
