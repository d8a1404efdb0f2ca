package event

import (
	"errors"
	"testing"

	"systemtrade/internal/domain"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()

	q.Put(Market{})
	q.Put(Signal{domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong}})
	q.Put(Order{domain.Order{Symbol: "AAPL", Quantity: 100, Side: domain.SideBuy}})

	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	first, err := q.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.Kind() != KindMarket {
		t.Errorf("first event kind = %q, want %q", first.Kind(), KindMarket)
	}

	second, err := q.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	sig, ok := second.(Signal)
	if !ok {
		t.Fatalf("second event is %T, want Signal", second)
	}
	if sig.Symbol != "AAPL" || sig.Direction != domain.SignalLong {
		t.Errorf("signal payload = %+v, want AAPL LONG", sig.Signal)
	}

	third, err := q.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if third.Kind() != KindOrder {
		t.Errorf("third event kind = %q, want %q", third.Kind(), KindOrder)
	}
}

func TestQueueEmpty(t *testing.T) {
	q := NewQueue()

	if _, err := q.Get(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Get on empty queue = %v, want ErrQueueEmpty", err)
	}

	// Draining to empty reports ErrQueueEmpty again.
	q.Put(Market{})
	if _, err := q.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := q.Get(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Get after drain = %v, want ErrQueueEmpty", err)
	}
}

func TestQueueAppendWhileDraining(t *testing.T) {
	// Events enqueued mid-drain come out after the events that were already
	// queued, never before.
	q := NewQueue()
	q.Put(Market{})
	q.Put(Signal{domain.Signal{Symbol: "A"}})

	e, err := q.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Kind() != KindMarket {
		t.Fatalf("head kind = %q, want MARKET", e.Kind())
	}
	q.Put(Order{domain.Order{Symbol: "A", Quantity: 1, Side: domain.SideBuy}})

	e, err = q.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Kind() != KindSignal {
		t.Errorf("kind after mid-drain append = %q, want SIGNAL", e.Kind())
	}
	e, err = q.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Kind() != KindOrder {
		t.Errorf("last kind = %q, want ORDER", e.Kind())
	}
}
