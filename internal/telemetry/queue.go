package telemetry

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultQueueSize bounds the events held while a sink is slow or down.
const DefaultQueueSize = 64

// Queue publishes to a Sink from its own goroutine. Publish never blocks, so
// callers on a control loop are never delayed by broker latency; when the
// queue is full the oldest event is dropped.
type Queue struct {
	sink   Sink
	logger *zap.Logger

	mu      sync.Mutex
	pending *ringBuffer
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// NewQueue starts a worker draining into sink.
func NewQueue(sink Sink, size int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		sink:    sink,
		logger:  logger,
		pending: newRingBuffer(size),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Publish enqueues the event. Events published after Close are discarded.
func (q *Queue) Publish(event Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	if q.pending.push(event) {
		q.logger.Warn("telemetry queue full, dropping oldest", zap.Int("capacity", q.pending.capacity))
	}
	// Signalled under the lock so Close cannot close wake in between.
	select {
	case q.wake <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return nil
}

func (q *Queue) run() {
	defer close(q.done)
	for range q.wake {
		q.flush()
	}
	q.flush()
}

func (q *Queue) flush() {
	q.mu.Lock()
	events := q.pending.drainAll()
	q.mu.Unlock()

	for _, e := range events {
		if err := q.sink.Publish(e); err != nil {
			q.logger.Warn("telemetry publish failed", zap.String("event", e.Type), zap.Error(err))
		}
	}
}

// Len returns the number of events waiting to be published.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.len()
}

// Close flushes pending events, waiting at most timeout, then closes the sink.
func (q *Queue) Close() error {
	return q.CloseTimeout(5 * time.Second)
}

// CloseTimeout is Close with an explicit flush deadline.
func (q *Queue) CloseTimeout(timeout time.Duration) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	close(q.wake)
	select {
	case <-q.done:
	case <-time.After(timeout):
		q.logger.Warn("telemetry flush timed out", zap.Int("pending", q.Len()))
	}
	return q.sink.Close()
}
