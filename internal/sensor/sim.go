package sensor

import "github.com/sweeney/thermofan/internal/logic"

// SimSensor walks the temperature back and forth between Low and High in
// Step increments, one step per Measure. Used with -sim.
type SimSensor struct {
	Low, High, Step float64
	Humidity        float64

	temp float64
	up   bool
}

// NewSimSensor creates a sweep starting at low and rising.
func NewSimSensor(low, high, step float64) *SimSensor {
	return &SimSensor{Low: low, High: high, Step: step, Humidity: 45, temp: low, up: true}
}

// Measure returns the current point of the sweep and advances it.
func (s *SimSensor) Measure() (logic.Reading, error) {
	r := logic.Reading{TempC: s.temp, Humidity: s.Humidity}
	if s.up {
		s.temp += s.Step
		if s.temp >= s.High {
			s.temp, s.up = s.High, false
		}
	} else {
		s.temp -= s.Step
		if s.temp <= s.Low {
			s.temp, s.up = s.Low, true
		}
	}
	return r, nil
}
