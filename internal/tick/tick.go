// Package tick provides the periodic tick source that paces the control loop.
//
// The source behaves like a hardware timer flag: each period it sets a flag
// (a one-slot channel). The consumer clears it by receiving. A tick that fires
// while the flag is still set is counted as an overrun and dropped, so the
// consumer never sees a backlog of stale ticks.
package tick

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQuantum is the default tick period.
const DefaultQuantum = 10 * time.Millisecond

// ErrStarted is returned when Arm or Start is called on a running source.
var ErrStarted = errors.New("tick: source already started")

// Source raises a flag once per armed period.
type Source struct {
	mu      sync.Mutex
	period  time.Duration
	started bool

	flag     chan time.Time
	overruns atomic.Uint64
}

// New creates an unarmed source.
func New() *Source {
	return &Source{flag: make(chan time.Time, 1)}
}

// Arm sets the tick period. It must be called before Start.
func (s *Source) Arm(period time.Duration) error {
	if period <= 0 {
		return errors.New("tick: period must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	s.period = period
	return nil
}

// Period returns the armed period.
func (s *Source) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Start runs the source in the background until ctx is done.
func (s *Source) Start(ctx context.Context) error {
	period, err := s.begin()
	if err != nil {
		return err
	}
	go s.loop(ctx, period)
	return nil
}

// Run is Start in the foreground: it blocks until ctx is done.
func (s *Source) Run(ctx context.Context) error {
	period, err := s.begin()
	if err != nil {
		return err
	}
	s.loop(ctx, period)
	return nil
}

func (s *Source) begin() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return 0, ErrStarted
	}
	if s.period <= 0 {
		return 0, errors.New("tick: not armed")
	}
	s.started = true
	return s.period, nil
}

func (s *Source) loop(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.fire(now)
		}
	}
}

// fire sets the flag, or counts an overrun if it is already set.
func (s *Source) fire(now time.Time) {
	select {
	case s.flag <- now:
	default:
		s.overruns.Add(1)
	}
}

// C returns the flag channel. Receiving from it clears the flag.
func (s *Source) C() <-chan time.Time {
	return s.flag
}

// Pending reports whether the flag is set.
func (s *Source) Pending() bool {
	return len(s.flag) > 0
}

// Clear drops a pending tick without waiting.
func (s *Source) Clear() {
	select {
	case <-s.flag:
	default:
	}
}

// Wait blocks until the flag is set, clears it and returns the tick time.
func (s *Source) Wait(ctx context.Context) (time.Time, error) {
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case now := <-s.flag:
		return now, nil
	}
}

// Overruns returns the number of ticks dropped because the flag was still set.
func (s *Source) Overruns() uint64 {
	return s.overruns.Load()
}
