package builtins

import (
	"errors"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/indicator"
	"systemtrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*ChannelBreakout)(nil)

// ChannelBreakout enters long when the close breaks above the prior
// high-window channel and exits when it falls below the prior low-window
// channel. The channel is built from closes, excluding the current bar.
type ChannelBreakout struct {
	tracker
	highWindow int
	lowWindow  int
}

// NewChannelBreakout creates a channel breakout strategy. Zero windows
// default to 20/20 periods.
func NewChannelBreakout(h data.Handler, highWindow, lowWindow int) *ChannelBreakout {
	if highWindow == 0 {
		highWindow = 20
	}
	if lowWindow == 0 {
		lowWindow = 20
	}
	return &ChannelBreakout{
		tracker:    newTracker("channel-breakout", h),
		highWindow: highWindow,
		lowWindow:  lowWindow,
	}
}

// Name returns "channel-breakout".
func (s *ChannelBreakout) Name() string { return "channel-breakout" }

// CalculateSignals compares the current close against the prior channel
// extremes for each symbol.
func (s *ChannelBreakout) CalculateSignals() ([]domain.Signal, error) {
	window := s.highWindow
	if s.lowWindow > window {
		window = s.lowWindow
	}

	var signals []domain.Signal
	for _, sym := range s.h.Symbols() {
		closes, err := s.h.LatestBarsValues(sym, domain.FieldClose, window+1)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				continue
			}
			return nil, err
		}
		if len(closes) < window+1 {
			continue
		}
		ts, err := s.h.LatestBarTime(sym)
		if err != nil {
			return nil, err
		}

		priorHigh, _ := indicator.Max(closes[:s.highWindow])
		priorLow, _ := indicator.Min(closes[:s.lowWindow])
		curr := closes[len(closes)-1]

		switch {
		case curr > priorHigh && s.state[sym] == domain.StateOut:
			signals = append(signals, s.enterLong(sym, ts))
		case curr < priorLow && s.state[sym] == domain.StateLong:
			signals = append(signals, s.exitLong(sym, ts))
		}
	}
	return signals, nil
}
