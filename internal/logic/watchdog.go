package logic

import "time"

// Watchdog is the actuator runtime state: whether the output should be
// powered and for how long. It never drives hardware itself; callers read
// IsOn after each operation and mirror it onto the output.
//
// The zero value is a powered-off watchdog.
type Watchdog struct {
	on        bool
	startedAt time.Time
	period    time.Duration
}

// NewWatchdog returns a watchdog in the off state.
func NewWatchdog() *Watchdog {
	return &Watchdog{}
}

// Activate powers on for window, or renews the window if already on.
// A zero window is handled as an immediate off so the relay is never pulsed.
func (w *Watchdog) Activate(now time.Time, window time.Duration) Transition {
	if window <= 0 {
		return w.Deactivate(now, 0)
	}

	typ := TransitionOn
	if w.on {
		typ = TransitionRefresh
	}
	w.on = true
	w.startedAt = now
	w.period = window
	return Transition{Type: typ, Reason: ReasonCommanded, At: now, Window: window}
}

// Deactivate powers off now when delay is zero. A positive delay rewrites the
// active window to end delay from now, exactly like a shorter activation.
// Deactivating an output that is already off does nothing.
func (w *Watchdog) Deactivate(now time.Time, delay time.Duration) Transition {
	if !w.on {
		return Transition{}
	}
	if delay > 0 {
		w.startedAt = now
		w.period = delay
		return Transition{Type: TransitionDeferred, Reason: ReasonCommanded, At: now, Window: delay}
	}
	w.off()
	return Transition{Type: TransitionOff, Reason: ReasonCommanded, At: now}
}

// Check expires the active window. It must be called on every poll tick and
// depends on nothing but the clock.
func (w *Watchdog) Check(now time.Time) Transition {
	if !w.on {
		return Transition{}
	}
	if now.Sub(w.startedAt) <= w.period {
		return Transition{}
	}
	w.off()
	return Transition{Type: TransitionOff, Reason: ReasonExpired, At: now}
}

func (w *Watchdog) off() {
	w.on = false
	w.startedAt = time.Time{}
	w.period = 0
}

// IsOn reports whether the output should be energized.
func (w *Watchdog) IsOn() bool {
	return w.on
}

// State returns the watchdog state as ON or OFF.
func (w *Watchdog) State() State {
	if w.on {
		return StateOn
	}
	return StateOff
}

// ExpiresAt returns the end of the active window. ok is false while off.
func (w *Watchdog) ExpiresAt() (at time.Time, ok bool) {
	if !w.on {
		return time.Time{}, false
	}
	return w.startedAt.Add(w.period), true
}
