package timer

import "time"

// Stopwatch accumulates elapsed time across start/pause toggles. It has no
// goroutine of its own; elapsed time is sampled from the clock on demand.
type Stopwatch struct {
	id          int
	accumulated time.Duration
	running     bool
	since       time.Time
	now         func() time.Time
	display     Display
}

// NewStopwatch returns a paused stopwatch reading zero. A nil clock means time.Now.
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

// Toggle starts a paused stopwatch or pauses a running one, and reports
// whether it is running afterwards.
func (s *Stopwatch) Toggle() bool {
	t := s.now()
	if s.running {
		s.accumulated += t.Sub(s.since)
		s.running = false
	} else {
		s.since = t
		s.running = true
	}
	return s.running
}

// Elapsed is the accumulated time plus the current run, if any.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.accumulated + s.now().Sub(s.since)
	}
	return s.accumulated
}

func (s *Stopwatch) Running() bool    { return s.running }
func (s *Stopwatch) ID() int          { return s.id }
func (s *Stopwatch) Display() Display { return s.display }
