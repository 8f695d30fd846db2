package logic

import (
	"errors"
	"testing"
)

var defaultSetpoints = Setpoints{
	Temperature: Band{Target: 21, Tolerance: 1},
	Humidity:    Band{Target: 40, Tolerance: 5},
}

func TestEvaluate(t *testing.T) {
	band := Band{Target: 21, Tolerance: 1}
	tests := []struct {
		name  string
		value float64
		want  Outcome
	}{
		{"well below", 15, ActivateRequested},
		{"just below lower edge", 19.99, ActivateRequested},
		{"lower edge", 20, NoChange},
		{"target", 21, NoChange},
		{"upper edge", 22, NoChange},
		{"just above upper edge", 22.01, DeactivateRequested},
		{"well above", 30, DeactivateRequested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.value, band); got != tt.want {
				t.Errorf("Evaluate(%v): got %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestEvaluateNoChatterAtTarget(t *testing.T) {
	band := Band{Target: 21, Tolerance: 1}
	for i := 0; i < 100; i++ {
		if got := Evaluate(21, band); got != NoChange {
			t.Fatalf("iteration %d: got %s, want NO_CHANGE", i, got)
		}
	}
}

func TestEvaluateBoundaryIsStable(t *testing.T) {
	band := Band{Target: 40, Tolerance: 5}
	for _, v := range []float64{35, 45} {
		first := Evaluate(v, band)
		for i := 0; i < 100; i++ {
			if got := Evaluate(v, band); got != first {
				t.Fatalf("value %v iteration %d: got %s, first call returned %s", v, i, got, first)
			}
		}
	}
}

func TestEvaluateZeroTolerance(t *testing.T) {
	band := Band{Target: 21}
	if got := Evaluate(21, band); got != NoChange {
		t.Errorf("at target: got %s", got)
	}
	if got := Evaluate(20.9, band); got != ActivateRequested {
		t.Errorf("below target: got %s", got)
	}
	if got := Evaluate(21.1, band); got != DeactivateRequested {
		t.Errorf("above target: got %s", got)
	}
}

func TestDecideColdRoomActivatesHeaterAndFan(t *testing.T) {
	d := Decide(Readings{
		Temperature: Reading{Value: 18},
		Humidity:    Reading{Value: 40},
	}, defaultSetpoints)

	if d.Heater != ActivateRequested {
		t.Errorf("heater: got %s, want ACTIVATE", d.Heater)
	}
	if d.Fan != ActivateRequested {
		t.Errorf("fan: got %s, want ACTIVATE", d.Fan)
	}
	if d.Humidifier != NoChange {
		t.Errorf("humidifier: got %s, want NO_CHANGE", d.Humidifier)
	}
}

func TestDecideHumidityInsideBand(t *testing.T) {
	for _, h := range []float64{35, 40, 44, 45} {
		d := Decide(Readings{
			Temperature: Reading{Value: 21},
			Humidity:    Reading{Value: h},
		}, defaultSetpoints)
		if d != (Decisions{}) {
			t.Errorf("humidity %v: expected no decisions, got %+v", h, d)
		}
	}

	// One point past the upper edge is a deactivation, not a no-op.
	d := Decide(Readings{
		Temperature: Reading{Value: 21},
		Humidity:    Reading{Value: 46},
	}, defaultSetpoints)
	if d.Humidifier != DeactivateRequested {
		t.Errorf("humidity 46: got %s, want DEACTIVATE", d.Humidifier)
	}
}

func TestDecideDryRoomActivatesHumidifierAndFan(t *testing.T) {
	d := Decide(Readings{
		Temperature: Reading{Value: 21},
		Humidity:    Reading{Value: 30},
	}, defaultSetpoints)

	if d.Humidifier != ActivateRequested {
		t.Errorf("humidifier: got %s, want ACTIVATE", d.Humidifier)
	}
	if d.Fan != ActivateRequested {
		t.Errorf("fan: got %s, want ACTIVATE", d.Fan)
	}
	if d.Heater != NoChange {
		t.Errorf("heater: got %s, want NO_CHANGE", d.Heater)
	}
}

func TestDecideNeverDeactivatesFan(t *testing.T) {
	d := Decide(Readings{
		Temperature: Reading{Value: 30},
		Humidity:    Reading{Value: 80},
	}, defaultSetpoints)

	if d.Heater != DeactivateRequested {
		t.Errorf("heater: got %s, want DEACTIVATE", d.Heater)
	}
	if d.Humidifier != DeactivateRequested {
		t.Errorf("humidifier: got %s, want DEACTIVATE", d.Humidifier)
	}
	if d.Fan != NoChange {
		t.Errorf("fan: got %s, want NO_CHANGE", d.Fan)
	}
}

func TestDecideMixedActivateAndDeactivate(t *testing.T) {
	d := Decide(Readings{
		Temperature: Reading{Value: 25},
		Humidity:    Reading{Value: 20},
	}, defaultSetpoints)

	want := Decisions{Heater: DeactivateRequested, Humidifier: ActivateRequested, Fan: ActivateRequested}
	if d != want {
		t.Errorf("got %+v, want %+v", d, want)
	}
}

func TestDecideFailedReadingIsNoChange(t *testing.T) {
	failed := errors.New("sensor timeout")

	// A cold value behind an error must not be acted on.
	d := Decide(Readings{
		Temperature: Reading{Value: 5, Err: failed},
		Humidity:    Reading{Value: 40},
	}, defaultSetpoints)
	if d != (Decisions{}) {
		t.Errorf("expected no decisions with failed temperature, got %+v", d)
	}

	d = Decide(Readings{
		Temperature: Reading{Value: 18},
		Humidity:    Reading{Value: 99, Err: failed},
	}, defaultSetpoints)
	want := Decisions{Heater: ActivateRequested, Fan: ActivateRequested}
	if d != want {
		t.Errorf("got %+v, want %+v", d, want)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := map[Outcome]string{
		NoChange:            "NO_CHANGE",
		ActivateRequested:   "ACTIVATE",
		DeactivateRequested: "DEACTIVATE",
	}
	for o, want := range tests {
		if o.String() != want {
			t.Errorf("got %q, want %q", o.String(), want)
		}
	}
}
