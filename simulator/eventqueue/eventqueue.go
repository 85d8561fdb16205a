// Package eventqueue holds events raised inside a critical section until they
// can be delivered outside of it
package eventqueue

import "sync"

// Queue is a FIFO of pending events, safe for concurrent use
type Queue[T any] struct {
	m     sync.Mutex
	items []T
}

// Push appends an event to the back of the queue
func (q *Queue[T]) Push(item T) {
	q.m.Lock()
	q.items = append(q.items, item)
	q.m.Unlock()
}

// Len returns the amount of queued events
func (q *Queue[T]) Len() int {
	q.m.Lock()
	defer q.m.Unlock()
	return len(q.items)
}

// Drain removes and returns every queued event in the order pushed. Draining
// an empty queue returns nil
func (q *Queue[T]) Drain() []T {
	q.m.Lock()
	defer q.m.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = nil
	return items
}

// Flush drains the queue into fn until it is empty. Events pushed by fn are
// delivered within the same flush after those already queued
func (q *Queue[T]) Flush(fn func(T)) int {
	var delivered int
	for {
		items := q.Drain()
		if items == nil {
			return delivered
		}
		for i := range items {
			fn(items[i])
		}
		delivered += len(items)
	}
}
