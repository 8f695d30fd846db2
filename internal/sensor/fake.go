package sensor

import (
	"errors"
	"sync"
)

// Values is one scripted sample.
type Values struct {
	Temperature float64
	Humidity    float64
	TempErr     error
	HumErr      error
}

// FakeReader is a test double that returns scripted readings.
type FakeReader struct {
	mu sync.Mutex

	// Samples contains scripted readings. Each call to Temperature() moves to
	// the next sample; Humidity() reports from the same sample. Once exhausted
	// the last sample repeats.
	Samples []Values

	index int
	reads int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...Values) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Temperature returns the next scripted temperature.
func (f *FakeReader) Temperature() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	if f.reads > 0 && f.index < len(f.Samples)-1 {
		f.index++
	}
	f.reads++
	s := f.Samples[f.index]
	return s.Temperature, s.TempErr
}

// Humidity returns the humidity of the current sample.
func (f *FakeReader) Humidity() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	return s.Humidity, s.HumErr
}

// Reset rewinds to the first sample.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.reads = 0
}
