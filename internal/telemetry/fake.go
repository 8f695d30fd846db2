package telemetry

import "sync"

// FakeSink records published events for test assertions.
type FakeSink struct {
	mu sync.Mutex

	// Events contains all events that were published.
	Events []Event

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSink creates a FakeSink for testing.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// Publish records the event.
func (f *FakeSink) Publish(event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the sink as closed.
func (f *FakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Types returns the recorded event types in order.
func (f *FakeSink) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Type
	}
	return out
}

// Reset clears recorded events.
func (f *FakeSink) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Events = nil
	f.Payloads = nil
	f.PublishError = nil
	f.Closed = false
}

// FailWith makes subsequent Publish calls return err (nil clears it).
func (f *FakeSink) FailWith(err error) {
	f.mu.Lock()
	f.PublishError = err
	f.mu.Unlock()
}
