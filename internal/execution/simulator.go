package execution

import (
	"fmt"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
)

// Compile-time interface check.
var _ Handler = (*Simulator)(nil)

// Simulator fills every order immediately at the latest close price with a
// fixed per-order commission. It models no latency, slippage or partial
// fills.
type Simulator struct {
	h          data.Handler
	commission float64
}

// NewSimulator creates a simulated execution handler that prices fills from
// the given data handler and charges commission per order.
func NewSimulator(h data.Handler, commission float64) *Simulator {
	return &Simulator{h: h, commission: commission}
}

// Name returns "simulated".
func (s *Simulator) Name() string { return "simulated" }

// ExecuteOrder fills the order at the symbol's latest close. The fill
// echoes the order's ID so the portfolio can match it against the pending
// order.
func (s *Simulator) ExecuteOrder(order domain.Order) (domain.Fill, error) {
	if err := order.Validate(); err != nil {
		return domain.Fill{}, err
	}
	price, err := s.h.LatestBarValue(order.Symbol, domain.FieldClose)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("pricing order for %s: %w", order.Symbol, err)
	}
	ts, err := s.h.LatestBarTime(order.Symbol)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("timestamping order for %s: %w", order.Symbol, err)
	}

	return domain.Fill{
		OrderID:    order.ID,
		Timestamp:  ts,
		Symbol:     order.Symbol,
		Exchange:   "SIMULATED",
		Quantity:   order.Quantity,
		Side:       order.Side,
		Cost:       price * float64(order.Quantity),
		Commission: s.commission,
	}, nil
}
