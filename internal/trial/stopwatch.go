package trial

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Stopwatch times one trial.
type Stopwatch struct {
	clock     Clock
	running   bool
	startedAt time.Time
}

// NewStopwatch returns a stopped stopwatch.
func NewStopwatch(clock Clock) *Stopwatch {
	if clock == nil {
		clock = SystemClock
	}
	return &Stopwatch{clock: clock}
}

// Start starts the stopwatch. It reports false if it was already running.
func (s *Stopwatch) Start() bool {
	if s.running {
		return false
	}
	s.running = true
	s.startedAt = s.clock.Now()
	return true
}

// Running reports whether the stopwatch has been started and not stopped.
func (s *Stopwatch) Running() bool {
	return s.running
}

// Stop stops the stopwatch and returns the elapsed milliseconds.
// ok is false if the stopwatch was never started.
func (s *Stopwatch) Stop() (elapsedMs int64, ok bool) {
	if !s.running {
		return 0, false
	}
	s.running = false
	return s.clock.Now().Sub(s.startedAt).Milliseconds(), true
}
