package logic

// Evaluate compares value against the band. Values strictly below the lower
// edge request activation, values strictly above the upper edge request
// deactivation, and anything inside or on an edge is NoChange.
func Evaluate(value float64, b Band) Outcome {
	switch {
	case value < b.Target-b.Tolerance:
		return ActivateRequested
	case value > b.Target+b.Tolerance:
		return DeactivateRequested
	default:
		return NoChange
	}
}

// Decide derives this cycle's decisions from fresh readings. It keeps no
// state between calls; an actuator already running inside the band gets no
// new command and is left to its own watchdog.
//
// A failed reading produces NoChange for its actuator. The fan is switched
// on whenever a primary actuator is, and is never explicitly switched off.
func Decide(r Readings, sp Setpoints) Decisions {
	var d Decisions
	if r.Temperature.Err == nil {
		d.Heater = Evaluate(r.Temperature.Value, sp.Temperature)
	}
	if r.Humidity.Err == nil {
		d.Humidifier = Evaluate(r.Humidity.Value, sp.Humidity)
	}
	if d.Heater == ActivateRequested || d.Humidifier == ActivateRequested {
		d.Fan = ActivateRequested
	}
	return d
}
