package builtins

import (
	"errors"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/indicator"
	"systemtrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MACD)(nil)

// MACD enters long when the MACD line (short EMA minus long EMA) is above its
// signal line while the signal line is positive, and exits when the MACD
// line drops below the signal line. The MACD line history is accumulated
// per symbol as bars stream in, since the signal line is an EMA over it.
type MACD struct {
	tracker
	short    int
	long     int
	signal   int
	macdLine map[string][]float64
}

// NewMACD creates a MACD strategy. Zero windows default to the conventional
// 12/26/9 configuration.
func NewMACD(h data.Handler, short, long, signal int) *MACD {
	if short == 0 {
		short = 12
	}
	if long == 0 {
		long = 26
	}
	if signal == 0 {
		signal = 9
	}
	return &MACD{
		tracker:  newTracker("macd", h),
		short:    short,
		long:     long,
		signal:   signal,
		macdLine: make(map[string][]float64, len(h.Symbols())),
	}
}

// Name returns "macd".
func (s *MACD) Name() string { return "macd" }

// CalculateSignals extends each symbol's MACD line with the current bar and
// compares it against the signal-line EMA. No signal fires until
// 2×long-window + signal-window bars exist.
func (s *MACD) CalculateSignals() ([]domain.Signal, error) {
	minBars := s.long*2 + s.signal

	var signals []domain.Signal
	for _, sym := range s.h.Symbols() {
		closes, err := s.h.LatestBarsValues(sym, domain.FieldClose, minBars)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return nil, err
		}

		longEMA, longOK := indicator.EMA(closes, s.long)
		shortEMA, shortOK := indicator.EMA(closes, s.short)
		if !longOK || !shortOK {
			continue
		}
		s.macdLine[sym] = append(s.macdLine[sym], shortEMA-longEMA)

		signalEMA, signalOK := indicator.EMA(s.macdLine[sym], s.signal)
		if len(closes) < minBars || !signalOK {
			continue
		}
		ts, err := s.h.LatestBarTime(sym)
		if err != nil {
			return nil, err
		}

		macd := shortEMA - longEMA
		switch {
		case macd > signalEMA && signalEMA > 0 && s.state[sym] == domain.StateOut:
			signals = append(signals, s.enterLong(sym, ts))
		case macd < signalEMA && s.state[sym] == domain.StateLong:
			signals = append(signals, s.exitLong(sym, ts))
		}
	}
	return signals, nil
}
