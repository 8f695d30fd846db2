package gpio

import "sync"

// FakeOutput is a test double that records every level written to it.
type FakeOutput struct {
	mu sync.Mutex

	// Writes holds every successfully written level, in order.
	Writes []bool

	// SetError, if set, is returned by Set and the level is not recorded.
	SetError error

	// Closed tracks if Close was called.
	Closed bool

	on bool
}

// NewFakeOutput creates a de-energized FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the level.
func (f *FakeOutput) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}
	f.on = on
	f.Writes = append(f.Writes, on)
	return nil
}

// Close de-energizes the fake and marks it closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.on = false
	f.Closed = true
	return nil
}

// IsOn reports the last level written.
func (f *FakeOutput) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// FailWith makes subsequent Set calls return err (nil clears it).
func (f *FakeOutput) FailWith(err error) {
	f.mu.Lock()
	f.SetError = err
	f.mu.Unlock()
}

// Reset clears recorded writes and state.
func (f *FakeOutput) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Writes = nil
	f.SetError = nil
	f.Closed = false
	f.on = false
}

// Levels returns a copy of the recorded writes. Safe to call while another
// goroutine drives the output.
func (f *FakeOutput) Levels() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.Writes...)
}
