// Package backtest owns the event queue and the dispatch loop that replays
// historical bars through strategies, the portfolio and the execution
// handler. The loop drains the queue completely between bar advances, so a
// bar's entire signal→order→fill chain resolves before the next bar is
// observed and no component ever sees future data.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/event"
	"systemtrade/internal/execution"
	"systemtrade/internal/portfolio"
	"systemtrade/internal/strategy"
)

// Backtest wires one run's components together. Construct a fresh Backtest
// per run; nothing is reused across runs.
type Backtest struct {
	data       data.Handler
	strategies []strategy.Strategy
	portfolio  *portfolio.Portfolio
	execution  execution.Handler
	queue      *event.Queue
	heartbeat  time.Duration
	period     domain.Period

	signals []domain.Signal
	lastBar time.Time
	log     *slog.Logger
}

// New creates a Backtest over the given components. heartbeat inserts a
// fixed pause between bar advances for live-simulation pacing; zero runs
// the replay flat out.
func New(
	h data.Handler,
	strategies []strategy.Strategy,
	p *portfolio.Portfolio,
	exec execution.Handler,
	period domain.Period,
	heartbeat time.Duration,
) *Backtest {
	return &Backtest{
		data:       h,
		strategies: strategies,
		portfolio:  p,
		execution:  exec,
		queue:      event.NewQueue(),
		heartbeat:  heartbeat,
		period:     period,
		log:        slog.Default().With("component", "backtest"),
	}
}

// Run replays the data to exhaustion and returns the run's performance
// summary. A data or accounting failure aborts the run with a diagnostic
// naming the last successfully processed bar.
func (b *Backtest) Run(ctx context.Context) (portfolio.Summary, error) {
	for {
		if err := ctx.Err(); err != nil {
			return portfolio.Summary{}, err
		}
		if !b.data.UpdateBars() {
			break
		}
		b.queue.Put(event.Market{})

		if err := b.drain(); err != nil {
			return portfolio.Summary{}, fmt.Errorf("after bar %s: %w",
				b.lastBar.Format(time.RFC3339), err)
		}

		if b.heartbeat > 0 {
			select {
			case <-ctx.Done():
				return portfolio.Summary{}, ctx.Err()
			case <-time.After(b.heartbeat):
			}
		}
	}

	summary := portfolio.Summarize(
		b.portfolio.Ledger(), b.portfolio.RealizedTrades(), b.period,
	).WithInitialCapital(b.portfolio.InitialCapital())
	b.log.Info("backtest complete",
		"bars", len(b.portfolio.Ledger()),
		"trades", summary.TotalTrades,
		"final_equity", summary.FinalEquity)
	return summary, nil
}

// drain dispatches queued events until the queue is empty. Events enqueued
// during dispatch are processed within the same drain.
func (b *Backtest) drain() error {
	for {
		e, err := b.queue.Get()
		if errors.Is(err, event.ErrQueueEmpty) {
			return nil
		}
		if err := b.dispatch(e); err != nil {
			return err
		}
	}
}

func (b *Backtest) dispatch(e event.Event) error {
	switch ev := e.(type) {
	case event.Market:
		for _, s := range b.strategies {
			signals, err := s.CalculateSignals()
			if err != nil {
				return fmt.Errorf("strategy %s: %w", s.Name(), err)
			}
			for _, sig := range signals {
				b.queue.Put(event.Signal{Signal: sig})
			}
		}
		if err := b.portfolio.OnMarket(); err != nil {
			return fmt.Errorf("mark-to-market: %w", err)
		}
		if ledger := b.portfolio.Ledger(); len(ledger) > 0 {
			b.lastBar = ledger[len(ledger)-1].Timestamp
		}

	case event.Signal:
		b.signals = append(b.signals, ev.Signal)
		if order := b.portfolio.OnSignal(ev.Signal); order != nil {
			b.queue.Put(event.Order{Order: *order})
		}

	case event.Order:
		fill, err := b.execution.ExecuteOrder(ev.Order)
		if err != nil {
			// A failed execution cancels the order. Cash and positions
			// only move on fills, but the portfolio must also stop
			// counting the dead order's quantity in its sizing guard.
			b.portfolio.CancelOrder(ev.ID)
			b.log.Warn("order not executed",
				"symbol", ev.Symbol, "side", ev.Side, "err", err)
			return nil
		}
		b.queue.Put(event.Fill{Fill: fill})

	case event.Fill:
		if err := b.portfolio.OnFill(ev.Fill); err != nil {
			return fmt.Errorf("applying fill for %s: %w", ev.Symbol, err)
		}
	}
	return nil
}

// Signals returns every signal emitted during the run, in dispatch order.
func (b *Backtest) Signals() []domain.Signal {
	return b.signals
}

// Portfolio returns the run's portfolio.
func (b *Backtest) Portfolio() *portfolio.Portfolio {
	return b.portfolio
}
