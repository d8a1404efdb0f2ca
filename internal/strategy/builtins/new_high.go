package builtins

import (
	"errors"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/indicator"
	"systemtrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*NewHigh)(nil)

// NewHigh enters long when the close sets a new all-time high over the
// replayed history and exits when the close falls below an EMA of the
// closes. Because the exit EMA is undefined until 2×window bars exist, the
// strategy is silent until then.
type NewHigh struct {
	tracker
	emaWindow int
	barsSeen  map[string]int
}

// NewNewHigh creates a new-high strategy. A zero EMA window defaults to 40
// periods.
func NewNewHigh(h data.Handler, emaWindow int) *NewHigh {
	if emaWindow == 0 {
		emaWindow = 40
	}
	return &NewHigh{
		tracker:   newTracker("new-high", h),
		emaWindow: emaWindow,
		barsSeen:  make(map[string]int, len(h.Symbols())),
	}
}

// Name returns "new-high".
func (s *NewHigh) Name() string { return "new-high" }

// CalculateSignals compares each symbol's close against its running
// all-time high and the exit EMA. The expected history length grows by one
// per market event; symbols that joined the timeline late never reach it
// and stay silent, matching the warm-up rule of the other variants.
func (s *NewHigh) CalculateSignals() ([]domain.Signal, error) {
	var signals []domain.Signal
	for _, sym := range s.h.Symbols() {
		s.barsSeen[sym]++
		expected := s.barsSeen[sym]

		closes, err := s.h.LatestBarsValues(sym, domain.FieldClose, expected)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return nil, err
		}
		if len(closes) < expected || len(closes) < 2 {
			continue
		}

		curr := closes[len(closes)-1]
		histMax, _ := indicator.Max(closes[:len(closes)-1])
		exitEMA, emaOK := indicator.EMA(closes, s.emaWindow)
		if !emaOK {
			continue
		}
		ts, err := s.h.LatestBarTime(sym)
		if err != nil {
			return nil, err
		}

		switch {
		case curr > histMax && s.state[sym] == domain.StateOut:
			signals = append(signals, s.enterLong(sym, ts))
		case curr < exitEMA && s.state[sym] == domain.StateLong:
			signals = append(signals, s.exitLong(sym, ts))
		}
	}
	return signals, nil
}
