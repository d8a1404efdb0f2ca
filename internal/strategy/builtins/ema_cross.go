package builtins

import (
	"errors"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/indicator"
	"systemtrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*EMACross)(nil)

// EMACross enters long while the short-period EMA is above the long-period
// EMA and exits when it drops below. Both EMAs use the seeded-SMA
// recurrence, so the strategy stays silent until 2×long-window bars exist.
type EMACross struct {
	tracker
	short int
	long  int
}

// NewEMACross creates an EMA crossover strategy. Zero windows default to
// 100/400 periods.
func NewEMACross(h data.Handler, short, long int) *EMACross {
	if short == 0 {
		short = 100
	}
	if long == 0 {
		long = 400
	}
	return &EMACross{
		tracker: newTracker("ema-cross", h),
		short:   short,
		long:    long,
	}
}

// Name returns "ema-cross".
func (s *EMACross) Name() string { return "ema-cross" }

// CalculateSignals compares the short and long EMAs of each symbol's closes.
func (s *EMACross) CalculateSignals() ([]domain.Signal, error) {
	var signals []domain.Signal
	for _, sym := range s.h.Symbols() {
		closes, err := s.h.LatestBarsValues(sym, domain.FieldClose, s.long*2)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return nil, err
		}

		shortEMA, shortOK := indicator.EMA(closes, s.short)
		longEMA, longOK := indicator.EMA(closes, s.long)
		if !shortOK || !longOK {
			continue
		}
		ts, err := s.h.LatestBarTime(sym)
		if err != nil {
			return nil, err
		}

		switch {
		case shortEMA > longEMA && s.state[sym] == domain.StateOut:
			signals = append(signals, s.enterLong(sym, ts))
		case shortEMA < longEMA && s.state[sym] == domain.StateLong:
			signals = append(signals, s.exitLong(sym, ts))
		}
	}
	return signals, nil
}
