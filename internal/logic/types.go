// Package logic contains the pure decision and watchdog logic for climate-relay nodes.
// This package has NO external dependencies (no GPIO, radio, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the logical state of an actuator output.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// Outcome is the result of evaluating one controlled quantity against its band.
type Outcome int

const (
	NoChange Outcome = iota
	ActivateRequested
	DeactivateRequested
)

func (o Outcome) String() string {
	switch o {
	case ActivateRequested:
		return "ACTIVATE"
	case DeactivateRequested:
		return "DEACTIVATE"
	default:
		return "NO_CHANGE"
	}
}

// Band is a set-point with a symmetric tolerance around it.
type Band struct {
	Target    float64
	Tolerance float64
}

// Setpoints holds the band for every monitored quantity.
type Setpoints struct {
	Temperature Band // degrees C
	Humidity    Band // percent RH
}

// Reading is a single calibrated sensor value. A non-nil Err means the value
// must not be used.
type Reading struct {
	Value float64
	Err   error
}

// Readings is one sampling cycle worth of sensor values.
type Readings struct {
	Temperature Reading
	Humidity    Reading
}

// Decisions is the per-actuator outcome of one cycle.
type Decisions struct {
	Heater     Outcome
	Humidifier Outcome
	Fan        Outcome
}

// TransitionType describes what a watchdog operation did to the output.
type TransitionType string

const (
	TransitionNone     TransitionType = ""
	TransitionOn       TransitionType = "POWER_ON"
	TransitionRefresh  TransitionType = "REFRESH"
	TransitionDeferred TransitionType = "DEFERRED_OFF"
	TransitionOff      TransitionType = "POWER_OFF"
)

// Reason explains why a transition happened.
type Reason string

const (
	ReasonCommanded Reason = "commanded"
	ReasonExpired   Reason = "expired"
)

// Transition is returned by every watchdog operation.
type Transition struct {
	Type   TransitionType
	Reason Reason
	At     time.Time
	Window time.Duration // new active window for ON, REFRESH and DEFERRED_OFF
}

// Changed reports whether the operation mutated watchdog state.
func (t Transition) Changed() bool {
	return t.Type != TransitionNone
}
