package data

import (
	"fmt"
	"sort"
	"time"

	"systemtrade/internal/domain"
)

// Compile-time interface check.
var _ Handler = (*HistoricHandler)(nil)

// HistoricHandler replays pre-loaded bar history one time step at a time.
// All symbols advance along a shared timeline built from the union of their
// bar timestamps; a symbol with no bar at a given timestamp simply does not
// advance on that step.
type HistoricHandler struct {
	symbols  []string
	all      map[string][]domain.Bar // full history per symbol, sorted by time
	latest   map[string][]domain.Bar // bars revealed so far
	cursor   map[string]int          // next unrevealed index into all[symbol]
	timeline []time.Time
	step     int
}

// NewHistoricHandler creates a replay handler over the given per-symbol bar
// history. The symbols slice fixes iteration order; bars for each symbol
// are sorted by timestamp. Symbols without any bars are kept in the
// universe and report domain.ErrDataUnavailable until data would appear.
func NewHistoricHandler(symbols []string, bars map[string][]domain.Bar) *HistoricHandler {
	h := &HistoricHandler{
		symbols: append([]string(nil), symbols...),
		all:     make(map[string][]domain.Bar, len(symbols)),
		latest:  make(map[string][]domain.Bar, len(symbols)),
		cursor:  make(map[string]int, len(symbols)),
	}

	seen := make(map[time.Time]bool)
	for _, s := range symbols {
		history := append([]domain.Bar(nil), bars[s]...)
		sort.Slice(history, func(i, j int) bool {
			return history[i].Timestamp.Before(history[j].Timestamp)
		})
		h.all[s] = history
		for _, b := range history {
			if !seen[b.Timestamp] {
				seen[b.Timestamp] = true
				h.timeline = append(h.timeline, b.Timestamp)
			}
		}
	}
	sort.Slice(h.timeline, func(i, j int) bool {
		return h.timeline[i].Before(h.timeline[j])
	})

	return h
}

// Symbols returns the ordered symbol universe.
func (h *HistoricHandler) Symbols() []string {
	return h.symbols
}

// UpdateBars reveals the next timestamp on the shared timeline. Every
// symbol with a bar at that timestamp gains one bar of visible history.
func (h *HistoricHandler) UpdateBars() bool {
	if h.step >= len(h.timeline) {
		return false
	}
	ts := h.timeline[h.step]
	h.step++

	for _, s := range h.symbols {
		i := h.cursor[s]
		if i < len(h.all[s]) && h.all[s][i].Timestamp.Equal(ts) {
			h.latest[s] = append(h.latest[s], h.all[s][i])
			h.cursor[s] = i + 1
		}
	}
	return true
}

// LatestBar returns the most recent revealed bar for symbol.
func (h *HistoricHandler) LatestBar(symbol string) (domain.Bar, error) {
	bars, ok := h.latest[symbol]
	if !ok || len(bars) == 0 {
		return domain.Bar{}, fmt.Errorf("%w: no bars for %s", domain.ErrDataUnavailable, symbol)
	}
	return bars[len(bars)-1], nil
}

// LatestBarValue returns the requested field of the most recent bar.
func (h *HistoricHandler) LatestBarValue(symbol string, field domain.BarField) (float64, error) {
	bar, err := h.LatestBar(symbol)
	if err != nil {
		return 0, err
	}
	return bar.Value(field), nil
}

// LatestBarsValues returns the requested field of the last n revealed bars,
// oldest first. Fewer than n values are returned during warm-up.
func (h *HistoricHandler) LatestBarsValues(symbol string, field domain.BarField, n int) ([]float64, error) {
	bars, ok := h.latest[symbol]
	if !ok || len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", domain.ErrDataUnavailable, symbol)
	}
	if n > len(bars) {
		n = len(bars)
	}
	values := make([]float64, 0, n)
	for _, b := range bars[len(bars)-n:] {
		values = append(values, b.Value(field))
	}
	return values, nil
}

// LatestBarTime returns the timestamp of the most recent revealed bar.
func (h *HistoricHandler) LatestBarTime(symbol string) (time.Time, error) {
	bar, err := h.LatestBar(symbol)
	if err != nil {
		return time.Time{}, err
	}
	return bar.Timestamp, nil
}
