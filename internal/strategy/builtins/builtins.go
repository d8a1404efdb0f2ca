// Package builtins provides the built-in signal-generating strategies. Each
// strategy keeps a per-symbol OUT/LONG state and alternates strictly between
// entry and exit: two consecutive LONG signals for the same symbol are
// impossible without an intervening EXIT.
package builtins

import (
	"log/slog"
	"time"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/strategy"
)

// Register adds all built-in strategy factories to the registry.
func Register(r *strategy.Registry) {
	r.Register("sma-cross", func(h data.Handler, p strategy.Params) strategy.Strategy {
		return NewSMACross(h, p.ShortWindow, p.LongWindow)
	})
	r.Register("ema-cross", func(h data.Handler, p strategy.Params) strategy.Strategy {
		return NewEMACross(h, p.ShortWindow, p.LongWindow)
	})
	r.Register("channel-breakout", func(h data.Handler, p strategy.Params) strategy.Strategy {
		return NewChannelBreakout(h, p.HighWindow, p.LowWindow)
	})
	r.Register("macd", func(h data.Handler, p strategy.Params) strategy.Strategy {
		return NewMACD(h, p.ShortWindow, p.LongWindow, p.SignalWindow)
	})
	r.Register("momentum", func(h data.Handler, p strategy.Params) strategy.Strategy {
		return NewMomentum(h, p.Window)
	})
	r.Register("new-high", func(h data.Handler, p strategy.Params) strategy.Strategy {
		return NewNewHigh(h, p.EMAWindow)
	})
}

// tracker holds the per-symbol entry/exit state shared by every built-in
// strategy. State transitions happen synchronously with signal emission;
// cash and positions only change later, when the fill arrives.
type tracker struct {
	name  string
	h     data.Handler
	state map[string]domain.PositionState
	log   *slog.Logger
}

func newTracker(name string, h data.Handler) tracker {
	state := make(map[string]domain.PositionState, len(h.Symbols()))
	for _, s := range h.Symbols() {
		state[s] = domain.StateOut
	}
	return tracker{
		name:  name,
		h:     h,
		state: state,
		log:   slog.Default().With("strategy", name),
	}
}

// enterLong flips the symbol to LONG and returns the entry signal.
func (t *tracker) enterLong(symbol string, ts time.Time) domain.Signal {
	t.state[symbol] = domain.StateLong
	t.log.Info("signal", "symbol", symbol, "timestamp", ts, "direction", domain.SignalLong)
	return domain.Signal{
		StrategyID: t.name,
		Symbol:     symbol,
		Timestamp:  ts,
		Direction:  domain.SignalLong,
		Strength:   1.0,
	}
}

// exitLong flips the symbol back to OUT and returns the exit signal.
func (t *tracker) exitLong(symbol string, ts time.Time) domain.Signal {
	t.state[symbol] = domain.StateOut
	t.log.Info("signal", "symbol", symbol, "timestamp", ts, "direction", domain.SignalExit)
	return domain.Signal{
		StrategyID: t.name,
		Symbol:     symbol,
		Timestamp:  ts,
		Direction:  domain.SignalExit,
		Strength:   1.0,
	}
}
