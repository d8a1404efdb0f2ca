package builtins

import (
	"errors"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/indicator"
	"systemtrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross enters long when the short-period SMA crosses above the
// long-period SMA and exits when it crosses back below.
type SMACross struct {
	tracker
	short int
	long  int
}

// NewSMACross creates an SMA crossover strategy. Zero windows default to
// 100/400 periods.
func NewSMACross(h data.Handler, short, long int) *SMACross {
	if short == 0 {
		short = 100
	}
	if long == 0 {
		long = 400
	}
	return &SMACross{
		tracker: newTracker("sma-cross", h),
		short:   short,
		long:    long,
	}
}

// Name returns "sma-cross".
func (s *SMACross) Name() string { return "sma-cross" }

// CalculateSignals compares the short and long SMAs of each symbol's
// closes. Symbols with fewer than long-window bars are skipped.
func (s *SMACross) CalculateSignals() ([]domain.Signal, error) {
	var signals []domain.Signal
	for _, sym := range s.h.Symbols() {
		closes, err := s.h.LatestBarsValues(sym, domain.FieldClose, s.long)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return nil, err
		}
		if len(closes) < s.long {
			continue
		}
		ts, err := s.h.LatestBarTime(sym)
		if err != nil {
			return nil, err
		}

		shortSMA, _ := indicator.SMA(closes, s.short)
		longSMA, _ := indicator.SMA(closes, s.long)

		switch {
		case shortSMA > longSMA && s.state[sym] == domain.StateOut:
			signals = append(signals, s.enterLong(sym, ts))
		case shortSMA < longSMA && s.state[sym] == domain.StateLong:
			signals = append(signals, s.exitLong(sym, ts))
		}
	}
	return signals, nil
}
