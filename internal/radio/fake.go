package radio

import (
	"sync"
	"time"
)

// FakeChannel is a test double for both ends of the channel. Sent frames are
// recorded; Receive returns injected frames in order and ErrTimeout
// immediately when none are queued, so tests control time themselves.
type FakeChannel struct {
	mu sync.Mutex

	// Sent contains every frame passed to a successful Send.
	Sent [][]byte

	// SendError, if set, is returned by Send and the frame is not recorded.
	SendError error

	// Timeouts counts Receive calls that found nothing queued.
	Timeouts int

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	pending [][]byte
}

// NewFakeChannel creates an empty FakeChannel.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{}
}

// Send records the frame.
func (f *FakeChannel) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SendError != nil {
		return f.SendError
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.Sent = append(f.Sent, cp)
	return nil
}

// Inject queues frames for Receive.
func (f *FakeChannel) Inject(frames ...[]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, frames...)
}

// Receive pops the next injected frame, or returns ErrTimeout without waiting.
func (f *FakeChannel) Receive(timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Closed {
		return nil, ErrClosed
	}
	if len(f.pending) == 0 {
		f.Timeouts++
		return nil, ErrTimeout
	}
	frame := f.pending[0]
	f.pending = f.pending[1:]
	return frame, nil
}

// Pending returns the number of injected frames not yet received.
func (f *FakeChannel) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// IsConnected reports whether the fake channel is "connected".
func (f *FakeChannel) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the channel closed.
func (f *FakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset clears recorded and pending frames.
func (f *FakeChannel) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = nil
	f.SendError = nil
	f.Timeouts = 0
	f.Closed = false
	f.Connected = false
	f.pending = nil
}

// SentFrames returns a copy of the recorded frames. Safe to call while
// another goroutine is sending.
func (f *FakeChannel) SentFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.Sent...)
}
