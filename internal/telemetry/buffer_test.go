package telemetry

import (
	"testing"
)

func ev(n int) Event {
	return Event{Type: "E", Reason: string(rune('a' + n))}
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got := rb.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(ev(i))
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].Reason != ev(i).Reason {
			t.Errorf("item %d: expected %s, got %s", i, ev(i).Reason, got[i].Reason)
		}
	}

	// Second drain should be empty
	if got2 := rb.drainAll(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferOverflow(t *testing.T) {
	capacity := 5
	rb := newRingBuffer(capacity)

	// Push capacity+3 items (0..7), buffer should keep the most recent 5 (3..7)
	firstDrops := 0
	for i := 0; i < capacity+3; i++ {
		if rb.push(ev(i)) {
			firstDrops++
		}
	}
	if firstDrops != 1 {
		t.Errorf("expected exactly one first-drop signal, got %d", firstDrops)
	}
	if rb.dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", rb.dropped)
	}

	got := rb.drainAll()
	if len(got) != capacity {
		t.Fatalf("expected %d items, got %d", capacity, len(got))
	}
	for i := 0; i < capacity; i++ {
		want := ev(i + 3).Reason // oldest 3 were dropped
		if got[i].Reason != want {
			t.Errorf("item %d: expected %s, got %s", i, want, got[i].Reason)
		}
	}

	// Overflow signal re-arms after a drain.
	for i := 0; i < capacity; i++ {
		rb.push(ev(i))
	}
	if !rb.push(ev(9)) {
		t.Error("expected first-drop signal after drain")
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 3; i++ {
		rb.push(ev(i))
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(ev(i))
	}
	got := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, e := range got {
		if want := ev(10 + i).Reason; e.Reason != want {
			t.Errorf("cycle 2 item %d: expected %s, got %s", i, want, e.Reason)
		}
	}
}

func TestRingBufferLen(t *testing.T) {
	rb := newRingBuffer(10)
	if rb.len() != 0 {
		t.Errorf("expected len 0, got %d", rb.len())
	}

	rb.push(ev(0))
	rb.push(ev(1))
	if rb.len() != 2 {
		t.Errorf("expected len 2, got %d", rb.len())
	}

	rb.drainAll()
	if rb.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", rb.len())
	}
}
