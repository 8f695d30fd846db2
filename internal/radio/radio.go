// Package radio provides the one-way, best-effort broadcast channel between
// nodes. Every receiver sees every frame and filters by target itself.
package radio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTimeout is returned by Receive when no frame arrived within the timeout.
var ErrTimeout = errors.New("radio: receive timeout")

// ErrClosed is returned by Receive after the channel has been closed.
var ErrClosed = errors.New("radio: channel closed")

// DefaultInboxSize bounds the number of frames held for a slow reader.
const DefaultInboxSize = 16

// Sender transmits a frame. Delivery is never confirmed: a nil error only
// means the frame left this node.
type Sender interface {
	Send(frame []byte) error
}

// Receiver waits at most timeout for the next frame.
// It returns ErrTimeout when nothing arrived so the caller can run periodic
// work; it must never block longer than timeout.
type Receiver interface {
	Receive(timeout time.Duration) ([]byte, error)
}

// ConnectionStatus reports whether the underlying link is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// inbox hands frames from transport goroutines to the control loop.
// When full the oldest frame is dropped; the newest command is the one that matters.
type inbox struct {
	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

func newInbox(size int) *inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &inbox{
		frames: make(chan []byte, size),
		closed: make(chan struct{}),
	}
}

func (b *inbox) deliver(frame []byte) {
	f := make([]byte, len(frame))
	copy(f, frame)

	for {
		select {
		case <-b.closed:
			return
		case b.frames <- f:
			return
		default:
		}
		select {
		case <-b.frames:
			b.dropped.Add(1)
		default:
		}
	}
}

func (b *inbox) receive(timeout time.Duration) ([]byte, error) {
	select {
	case f := <-b.frames:
		return f, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f := <-b.frames:
		return f, nil
	case <-b.closed:
		return nil, ErrClosed
	case <-timer.C:
		return nil, ErrTimeout
	}
}

func (b *inbox) close() {
	b.closeOnce.Do(func() { close(b.closed) })
}

// Dropped returns the number of frames discarded because the inbox was full.
func (b *inbox) Dropped() uint64 {
	return b.dropped.Load()
}
