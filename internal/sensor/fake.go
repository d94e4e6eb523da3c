package sensor

import "github.com/sweeney/thermofan/internal/logic"

// Result is one scripted measurement outcome.
type Result struct {
	Reading logic.Reading
	Err     error
}

// FakeSensor is a test double that returns scripted readings.
type FakeSensor struct {
	// Results contains scripted outcomes.
	// Each call to Measure() consumes the next result.
	Results []Result

	// Calls counts Measure invocations.
	Calls int

	index int
}

// NewFakeSensor creates a FakeSensor with the given results.
func NewFakeSensor(results ...Result) *FakeSensor {
	return &FakeSensor{Results: results}
}

// Celsius is a shorthand for a successful reading.
func Celsius(c, humidity float64) Result {
	return Result{Reading: logic.Reading{TempC: c, Humidity: humidity}}
}

// Busy is a shorthand for a failed reading.
func Busy() Result {
	return Result{Err: ErrBusy}
}

// Measure returns the next scripted result.
// If results are exhausted, returns the last result repeatedly.
func (f *FakeSensor) Measure() (logic.Reading, error) {
	f.Calls++
	if len(f.Results) == 0 {
		return logic.Reading{}, ErrBusy
	}

	r := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	return r.Reading, r.Err
}
