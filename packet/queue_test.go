package packet

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueueDropOldest verifies drop-oldest backpressure: pushing A, B, C, D
// into a capacity-3 queue leaves exactly [B, C, D] in order.
func TestQueueDropOldest(t *testing.T) {
	q := NewEventQueue(3)

	assert.False(t, q.Push(Event{FrameNumber: 1})) // A
	assert.False(t, q.Push(Event{FrameNumber: 2})) // B
	assert.False(t, q.Push(Event{FrameNumber: 3})) // C
	assert.True(t, q.Push(Event{FrameNumber: 4}))  // D evicts A

	assert.Equal(t, 3, q.Len())

	for _, want := range []uint64{2, 3, 4} {
		ev, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, ev.FrameNumber)
	}

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueFIFOOrder(t *testing.T) {
	q := NewEventQueue(16)

	for i := uint64(1); i <= 10; i++ {
		q.Push(Event{FrameNumber: i})
	}

	for i := uint64(1); i <= 10; i++ {
		ev, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, ev.FrameNumber)
	}
}

func TestQueueDefaultCapacity(t *testing.T) {
	q := NewEventQueue(0)
	assert.Equal(t, DefaultQueueCapacity, q.Cap())
}

// TestQueueConcurrentAccess exercises the producer/consumer contract: one
// goroutine pushing while another pops must never race or lose the bound.
func TestQueueConcurrentAccess(t *testing.T) {
	q := NewEventQueue(64)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := uint64(0); i < 5000; i++ {
			q.Push(Event{FrameNumber: i})
		}
	}()

	var popped int
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			if _, ok := q.Pop(); ok {
				popped++
			}
		}
	}()

	wg.Wait()
	assert.LessOrEqual(t, q.Len(), 64)
}
