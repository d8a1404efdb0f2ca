// Package gather fetches historical market data from external providers and
// writes it to the bar store.
package gather

import (
	"context"
)

// Gatherer is the interface for all data gathering processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run starts the data gathering process. It blocks until the gather
	// completes or ctx is cancelled.
	Run(ctx context.Context) error
}
