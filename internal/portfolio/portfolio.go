// Package portfolio tracks cash, positions and holdings across a backtest,
// translates strategy signals into sized orders, and applies fills. It is
// the only component that mutates money: strategies flip their own entry
// state immediately, but cash and position quantities change exclusively in
// OnFill.
package portfolio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
)

// Snapshot is one append-only ledger row: the state of the books after
// marking every symbol to the latest close. Total always equals
// Cash + Σ Holdings.
type Snapshot struct {
	Timestamp time.Time
	Cash      float64
	Total     float64
	Positions map[string]int     // signed share quantity per symbol
	Holdings  map[string]float64 // market value per symbol
}

// Portfolio owns the run's accounting state. One Portfolio exists per
// backtest run; nothing about it is shared or global.
type Portfolio struct {
	h          data.Handler
	symbols    []string
	initial    float64
	allocation float64 // base share allocation per unit of signal strength
	split      float64 // equal-weight capital split across strategies

	cash      float64
	positions map[string]int
	holdings  map[string]float64
	ledger    []Snapshot

	// pending holds orders emitted but not yet filled, keyed by order ID.
	// Fills that do not match a pending order are dropped, so a retrying
	// execution handler cannot double-count.
	pending map[string]domain.Order

	// realized collects per-round-trip cash P&L for trade statistics. A
	// round trip's P&L is the sum of its signed cash deltas, since the
	// sizing guard only ever moves positions between flat and open.
	realized  []float64
	openFlow  map[string]float64
	log       *slog.Logger
}

// New creates a Portfolio over the handler's symbol universe with all
// positions flat and cash equal to initialCapital. allocation is the share
// quantity ordered per unit of signal strength; numStrategies splits it
// equally when several strategies share the account (zero or one means no
// split).
func New(h data.Handler, initialCapital float64, allocation int, numStrategies int) *Portfolio {
	symbols := h.Symbols()
	p := &Portfolio{
		h:          h,
		symbols:    append([]string(nil), symbols...),
		initial:    initialCapital,
		allocation: float64(allocation),
		split:      1.0,
		cash:       initialCapital,
		positions:  make(map[string]int, len(symbols)),
		holdings:   make(map[string]float64, len(symbols)),
		pending:    make(map[string]domain.Order),
		openFlow:   make(map[string]float64, len(symbols)),
		log:        slog.Default().With("component", "portfolio"),
	}
	if numStrategies > 1 {
		p.split = 1.0 / float64(numStrategies)
	}
	for _, s := range symbols {
		p.positions[s] = 0
		p.holdings[s] = 0
	}
	return p
}

// OnMarket marks every symbol to its latest close and appends a ledger row.
// It never emits events. Symbols with no bars yet carry a zero market value.
func (p *Portfolio) OnMarket() error {
	var ts time.Time
	for _, s := range p.symbols {
		t, err := p.h.LatestBarTime(s)
		if err == nil {
			ts = t
			break
		}
	}

	for _, s := range p.symbols {
		close, err := p.h.LatestBarValue(s, domain.FieldClose)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return err
		}
		p.holdings[s] = float64(p.positions[s]) * close
	}

	snap := Snapshot{
		Timestamp: ts,
		Cash:      p.cash,
		Positions: make(map[string]int, len(p.symbols)),
		Holdings:  make(map[string]float64, len(p.symbols)),
	}
	total := p.cash
	for _, s := range p.symbols {
		snap.Positions[s] = p.positions[s]
		snap.Holdings[s] = p.holdings[s]
		total += p.holdings[s]
	}
	snap.Total = total
	p.ledger = append(p.ledger, snap)
	return nil
}

// OnSignal sizes the signal into at most one market order. The guard matrix
// is strict: entries require a flat position, exits require an open one,
// and anything else is suppressed silently. Orders that fail validation are
// suppressed too, never propagated.
//
// The guard evaluates the effective position, current plus still-pending
// order quantities. Signals from a second strategy arrive on the queue
// before the first strategy's fill, and without the pending adjustment they
// would double an entry or flip an exit into an unintended short.
func (p *Portfolio) OnSignal(sig domain.Signal) *domain.Order {
	quantity := int(math.Floor(p.allocation * p.split * sig.Strength))
	current := p.positions[sig.Symbol] + p.pendingDelta(sig.Symbol)

	var order *domain.Order
	switch {
	case sig.Direction == domain.SignalLong && current == 0:
		order = p.newOrder(sig.Symbol, quantity, domain.SideBuy)
	case sig.Direction == domain.SignalShort && current == 0:
		order = p.newOrder(sig.Symbol, quantity, domain.SideSell)
	case sig.Direction == domain.SignalExit && current > 0:
		order = p.newOrder(sig.Symbol, current, domain.SideSell)
	case sig.Direction == domain.SignalExit && current < 0:
		order = p.newOrder(sig.Symbol, -current, domain.SideBuy)
	}
	if order == nil {
		return nil
	}
	if err := order.Validate(); err != nil {
		p.log.Debug("order suppressed", "symbol", sig.Symbol, "direction", sig.Direction, "err", err)
		return nil
	}
	p.pending[order.ID] = *order
	return order
}

// CancelOrder removes a pending order that will never fill, releasing its
// quantity from the sizing guard. The dispatch loop calls it when the
// execution handler rejects an order; without the cancellation a later EXIT
// would count the dead order as an open position and sell shares that were
// never bought. Unknown IDs are ignored.
func (p *Portfolio) CancelOrder(id string) {
	delete(p.pending, id)
}

// pendingDelta returns the signed share quantity of emitted-but-unfilled
// orders for symbol.
func (p *Portfolio) pendingDelta(symbol string) int {
	var delta int
	for _, o := range p.pending {
		if o.Symbol != symbol {
			continue
		}
		if o.Side == domain.SideBuy {
			delta += o.Quantity
		} else {
			delta -= o.Quantity
		}
	}
	return delta
}

func (p *Portfolio) newOrder(symbol string, quantity int, side domain.OrderSide) *domain.Order {
	return &domain.Order{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Type:     domain.OrderTypeMarket,
		Quantity: quantity,
		Side:     side,
	}
}

// OnFill applies an execution fill: it adjusts the position by the filled
// quantity, moves cash by the signed cost plus commission, and re-marks the
// affected symbol. Fills whose order ID does not match a pending order are
// logged and dropped.
func (p *Portfolio) OnFill(fill domain.Fill) error {
	if _, ok := p.pending[fill.OrderID]; !ok {
		p.log.Warn("dropping unmatched fill",
			"order_id", fill.OrderID, "symbol", fill.Symbol, "side", fill.Side)
		return nil
	}
	delete(p.pending, fill.OrderID)

	dir := 1
	if fill.Side == domain.SideSell {
		dir = -1
	}

	wasFlat := p.positions[fill.Symbol] == 0
	p.positions[fill.Symbol] += dir * fill.Quantity

	flow := -float64(dir)*fill.Cost - fill.Commission
	p.cash += flow

	if wasFlat {
		p.openFlow[fill.Symbol] = flow
	} else if p.positions[fill.Symbol] == 0 {
		p.realized = append(p.realized, p.openFlow[fill.Symbol]+flow)
		delete(p.openFlow, fill.Symbol)
	}

	close, err := p.h.LatestBarValue(fill.Symbol, domain.FieldClose)
	if err != nil {
		return fmt.Errorf("marking fill for %s: %w", fill.Symbol, err)
	}
	p.holdings[fill.Symbol] = float64(p.positions[fill.Symbol]) * close
	return nil
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	return p.cash
}

// Position returns the current signed quantity for symbol.
func (p *Portfolio) Position(symbol string) int {
	return p.positions[symbol]
}

// Ledger returns the append-only snapshot history.
func (p *Portfolio) Ledger() []Snapshot {
	return p.ledger
}

// InitialCapital returns the starting cash of the run.
func (p *Portfolio) InitialCapital() float64 {
	return p.initial
}

// RealizedTrades returns the cash P&L of each completed round trip.
func (p *Portfolio) RealizedTrades() []float64 {
	return p.realized
}
