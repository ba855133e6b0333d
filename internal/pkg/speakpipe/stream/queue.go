package stream

import (
	"sync"
	"time"
)

// Queue is the hand-off point between the synthesis pump and the playback
// feeder. Push never blocks so the pump can run ahead of real-time
// playback; Pop blocks with a bounded timeout so the feeder observes
// shutdown promptly. One producer and one consumer per session.
type Queue struct {
	mu     sync.Mutex
	items  []Item
	closed bool
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Push appends an item. It never blocks. Items pushed after Close are
// dropped.
func (q *Queue) Push(it Item) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, it)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest item. It waits up to timeout when
// the queue is empty; ok is false on timeout or after Close drains.
func (q *Queue) Pop(timeout time.Duration) (Item, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			it := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return it, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return Item{}, false
		}

		select {
		case <-q.signal:
		case <-deadline.C:
			return Item{}, false
		}
	}
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close empties the queue and wakes any blocked Pop. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}
