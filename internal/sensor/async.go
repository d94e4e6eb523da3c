package sensor

import "github.com/sweeney/thermofan/internal/logic"

// ErrPending is returned by Async while a read is in progress. It matches
// ErrBusy with errors.Is.
var ErrPending error = pendingError{}

type pendingError struct{}

func (pendingError) Error() string        { return "sensor busy: read in progress" }
func (pendingError) Pending() bool        { return true }
func (pendingError) Is(target error) bool { return target == ErrBusy }

// Async runs a blocking sensor's reads on their own goroutine so the caller
// never waits on the hardware. Measure starts a read and returns ErrPending
// until that read finishes, then returns its result once.
//
// Measure must be called from a single goroutine.
type Async struct {
	inner    Sensor
	results  chan Result
	inFlight bool
}

// NewAsync wraps s.
func NewAsync(s Sensor) *Async {
	return &Async{inner: s, results: make(chan Result, 1)}
}

// Measure returns the finished read, or ErrPending if none is ready yet.
func (a *Async) Measure() (logic.Reading, error) {
	if a.inFlight {
		select {
		case r := <-a.results:
			a.inFlight = false
			return r.Reading, r.Err
		default:
			return logic.Reading{}, ErrPending
		}
	}

	a.inFlight = true
	go func() {
		r, err := a.inner.Measure()
		a.results <- Result{Reading: r, Err: err}
	}()
	return logic.Reading{}, ErrPending
}
