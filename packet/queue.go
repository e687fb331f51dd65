package packet

import "sync"

// DefaultQueueCapacity bounds the event queue between producer and
// downstream consumers.
const DefaultQueueCapacity = 10000

// EventQueue is a fixed-capacity FIFO of Events backed by a ring buffer,
// so the bound is structural rather than enforced by periodic trimming.
//
// Push never blocks: at capacity the oldest event is dropped to make room
// for the newest. The queue is safe for concurrent producer/consumer use;
// all operations are linearizable under the internal mutex.
type EventQueue struct {
	mu   sync.Mutex
	buf  []Event
	head int // index of the oldest event
	size int
}

// NewEventQueue creates an EventQueue holding at most capacity events.
// Non-positive capacities fall back to DefaultQueueCapacity.
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &EventQueue{buf: make([]Event, capacity)}
}

// Push inserts ev, evicting the oldest event first when the queue is full.
// It reports whether an eviction occurred.
func (q *EventQueue) Push(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	evicted := false
	if q.size == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		evicted = true
	}

	q.buf[(q.head+q.size)%len(q.buf)] = ev
	q.size++
	return evicted
}

// Pop removes and returns the oldest event. The second return value is
// false when the queue is empty.
func (q *EventQueue) Pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return Event{}, false
	}

	ev := q.buf[q.head]
	q.buf[q.head] = Event{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return ev, true
}

// Len returns the current number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity of the queue.
func (q *EventQueue) Cap() int {
	return len(q.buf)
}
