// Package sensor reads the temperature/humidity sensor.
package sensor

import (
	"errors"

	"github.com/sweeney/thermofan/internal/logic"
)

// ErrBusy means the sensor had no valid reading this time (not ready, timeout
// or checksum mismatch). Callers skip the update and try again later.
var ErrBusy = errors.New("sensor busy")

// Sensor performs one measurement.
type Sensor interface {
	Measure() (logic.Reading, error)
}
