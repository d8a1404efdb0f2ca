package event

import "errors"

// ErrQueueEmpty is returned by Get when the queue holds no events. It is
// benign: the backtest loop treats it as "drain complete" and advances the
// data handler to the next bar.
var ErrQueueEmpty = errors.New("event queue empty")

// Queue is a strict first-in-first-out event queue. Events enqueued while
// the queue is being drained are appended behind the events already present,
// which guarantees that a bar's full signal→order→fill chain completes
// before the next Market event is observed.
//
// The backtest runs on a single goroutine; Queue is not safe for concurrent
// use.
type Queue struct {
	events []Event
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Put appends an event to the tail of the queue.
func (q *Queue) Put(e Event) {
	q.events = append(q.events, e)
}

// Get removes and returns the event at the head of the queue, or
// ErrQueueEmpty if there is none.
func (q *Queue) Get() (Event, error) {
	if len(q.events) == 0 {
		return nil, ErrQueueEmpty
	}
	e := q.events[0]
	q.events = q.events[1:]
	return e, nil
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}
