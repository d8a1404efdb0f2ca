package builtins

import (
	"errors"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Momentum)(nil)

// Momentum enters long when the close is above the close from window bars
// ago and exits when it drops below.
type Momentum struct {
	tracker
	window int
}

// NewMomentum creates a momentum strategy. A zero window defaults to 80
// periods.
func NewMomentum(h data.Handler, window int) *Momentum {
	if window == 0 {
		window = 80
	}
	return &Momentum{
		tracker: newTracker("momentum", h),
		window:  window,
	}
}

// Name returns "momentum".
func (s *Momentum) Name() string { return "momentum" }

// CalculateSignals compares the current close against the close window bars
// ago for each symbol.
func (s *Momentum) CalculateSignals() ([]domain.Signal, error) {
	var signals []domain.Signal
	for _, sym := range s.h.Symbols() {
		closes, err := s.h.LatestBarsValues(sym, domain.FieldClose, s.window+1)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return nil, err
		}
		if len(closes) < s.window+1 {
			continue
		}
		ts, err := s.h.LatestBarTime(sym)
		if err != nil {
			return nil, err
		}

		prev := closes[0]
		curr := closes[len(closes)-1]

		switch {
		case curr > prev && s.state[sym] == domain.StateOut:
			signals = append(signals, s.enterLong(sym, ts))
		case curr < prev && s.state[sym] == domain.StateLong:
			signals = append(signals, s.exitLong(sym, ts))
		}
	}
	return signals, nil
}
