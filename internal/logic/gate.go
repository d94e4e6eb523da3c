package logic

import "time"

// DefaultSensorInterval is the minimum time between accepted sensor reads.
const DefaultSensorInterval = 4000 * time.Millisecond

// Measurer performs one underlying sensor read.
type Measurer interface {
	Measure() (Reading, error)
}

// pending is implemented by errors that mean a read has started but not
// finished yet.
type pending interface {
	Pending() bool
}

// IsPending reports whether err says a read is still in progress.
func IsPending(err error) bool {
	p, ok := err.(pending)
	return ok && p.Pending()
}

// SensorGate limits underlying sensor reads to one per interval.
// A failed read does not restart the interval, so the next Sample retries.
// A read still in progress is neither a failure nor a sample: the gate just
// asks again on the next call.
type SensorGate struct {
	interval   time.Duration
	lastSample time.Time
	reads      int
	failures   int
	lastErr    error
}

// NewSensorGate creates a gate whose first read is allowed once interval has
// passed since start.
func NewSensorGate(interval time.Duration, start time.Time) *SensorGate {
	return &SensorGate{
		interval:   interval,
		lastSample: start,
	}
}

// Sample returns a reading if the interval has elapsed and the underlying
// read succeeds. The sensor is not touched when the interval has not elapsed.
func (g *SensorGate) Sample(now time.Time, m Measurer) (Reading, bool) {
	if now.Sub(g.lastSample) < g.interval {
		return Reading{}, false
	}

	r, err := m.Measure()
	if IsPending(err) {
		return Reading{}, false
	}
	if err != nil {
		g.failures++
		g.lastErr = err
		return Reading{}, false
	}

	g.reads++
	g.lastErr = nil
	g.lastSample = now
	return r, true
}

// LastSample returns the time of the last accepted read (or the start time).
func (g *SensorGate) LastSample() time.Time {
	return g.lastSample
}

// LastError returns the error of the most recent underlying read, if it failed.
func (g *SensorGate) LastError() error {
	return g.lastErr
}

// Stats returns the number of accepted and failed underlying reads.
func (g *SensorGate) Stats() (reads, failures int) {
	return g.reads, g.failures
}

// Fahrenheit converts Celsius to whole Fahrenheit degrees, truncating.
func Fahrenheit(c float64) int {
	return int(c*9.0/5.0 + 32)
}
