package telemetry

// ringBuffer is a fixed-capacity FIFO of pending events.
// Not safe for concurrent use; the caller must synchronize.
type ringBuffer struct {
	buf      []Event
	capacity int
	head     int // next write position
	count    int
	dropped  int  // total events overwritten
	overflow bool // true if any event was dropped since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buf:      make([]Event, capacity),
		capacity: capacity,
	}
}

// push appends an event, overwriting the oldest when full.
// It reports whether this is the first drop since the last drain.
func (r *ringBuffer) push(e Event) bool {
	if r.count == r.capacity {
		first := !r.overflow
		r.overflow = true
		r.dropped++
		// Overwrite oldest: head is already pointing at it
		r.buf[r.head] = e
		r.head = (r.head + 1) % r.capacity
		// count stays at capacity
		return first
	}
	r.buf[r.head] = e
	r.head = (r.head + 1) % r.capacity
	r.count++
	return false
}

func (r *ringBuffer) drainAll() []Event {
	if r.count == 0 {
		return nil
	}

	result := make([]Event, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
		r.buf[(start+i)%r.capacity] = Event{}
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
