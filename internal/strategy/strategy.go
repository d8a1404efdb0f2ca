// Package strategy defines the Strategy interface for signal generators and
// provides a Registry of named strategy factories.
package strategy

import (
	"fmt"
	"sort"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
)

// Strategy is a signal state machine. On every Market event the backtest
// loop calls CalculateSignals once; the strategy inspects the latest bars
// through its data handler, updates its per-symbol entry/exit state, and
// returns at most one signal per symbol. Symbols still inside their
// indicator warm-up window produce no signal.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// CalculateSignals processes the current bar for every tracked symbol
	// and returns the signals generated by state transitions.
	CalculateSignals() ([]domain.Signal, error)
}

// Params holds the window configuration shared by the built-in strategies.
// A zero field means "use the variant's default".
type Params struct {
	ShortWindow  int // sma-cross, ema-cross, macd
	LongWindow   int // sma-cross, ema-cross, macd
	SignalWindow int // macd
	HighWindow   int // channel-breakout
	LowWindow    int // channel-breakout
	Window       int // momentum
	EMAWindow    int // new-high exit
}

// Factory constructs a strategy bound to a data handler.
type Factory func(h data.Handler, p Params) Strategy

// Registry holds a named collection of strategy factories for lookup and
// enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory to the registry under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// New constructs the named strategy over the given data handler, or returns
// an error naming the unknown strategy.
func (r *Registry) New(name string, h data.Handler, p Params) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return f(h, p), nil
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
