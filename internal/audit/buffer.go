package audit

import "sync"

// RingBuffer is a bounded, thread-safe queue of events waiting for the sink.
// When full, the oldest events are dropped to make room for new ones.
type RingBuffer struct {
	mu       sync.Mutex
	events   []Event
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int

	dropped int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 10000
	}
	return &RingBuffer{
		events:   make([]Event, capacity),
		capacity: capacity,
	}
}

// Enqueue adds an event, dropping the oldest if necessary. It reports
// whether an event was dropped.
func (b *RingBuffer) Enqueue(event Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := false
	if b.count >= b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		dropped = true
	}

	b.events[b.head] = event
	b.head = (b.head + 1) % b.capacity
	b.count++
	return dropped
}

// Requeue puts events back at the front of the queue, ahead of anything
// enqueued since they were drained. When there is not enough room the oldest
// of the returned events are dropped. It reports how many were dropped.
func (b *RingBuffer) Requeue(events []Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	lost := 0
	if room := b.capacity - b.count; len(events) > room {
		lost = len(events) - room
		events = events[lost:]
		b.dropped += int64(lost)
	}
	for i := len(events) - 1; i >= 0; i-- {
		b.tail = (b.tail - 1 + b.capacity) % b.capacity
		b.events[b.tail] = events[i]
		b.count++
	}
	return lost
}

// Drain removes and returns up to max events in FIFO order.
func (b *RingBuffer) Drain(max int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.count
	if max > 0 && n > max {
		n = max
	}
	out := make([]Event, n)
	for i := range n {
		out[i] = b.events[b.tail]
		b.events[b.tail] = Event{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns how many events were discarded because the buffer was full.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
