// Package sensor exposes the coordinator's calibrated environmental inputs.
// Calibration happens upstream; this package only delivers physical units.
package sensor

import (
	"errors"

	"github.com/sweeney/climate-relay/internal/logic"
)

// ErrNoReading is returned when no valid value is available.
var ErrNoReading = errors.New("sensor: no reading available")

// ErrStale is returned when the latest value is older than the allowed age.
var ErrStale = errors.New("sensor: reading is stale")

// Reader returns calibrated readings. Each method is called once per cycle.
type Reader interface {
	// Temperature returns degrees Celsius.
	Temperature() (float64, error)
	// Humidity returns relative humidity in percent.
	Humidity() (float64, error)
}

// Sample reads every quantity once. Failures are carried in the result
// rather than returned, so one bad input does not hide the other.
func Sample(r Reader) logic.Readings {
	var out logic.Readings
	out.Temperature.Value, out.Temperature.Err = r.Temperature()
	out.Humidity.Value, out.Humidity.Err = r.Humidity()
	return out
}
