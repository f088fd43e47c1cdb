// Package timer implements the session's countdowns (with a repeating alarm)
// and stopwatches.
//
// Countdown ticks and stopwatch redisplays run as scheduler callbacks on the
// loop goroutine. The only other goroutines are alarm workers, one per
// alarming countdown, which read their cancellation token and their display's
// liveness and nothing else owned by the session.
package timer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrInvalidDuration is returned for a countdown length that is not a
	// positive number of seconds, or a clock string that does not parse.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrNoSuchCountdown is returned by Stop for an unknown countdown id.
	ErrNoSuchCountdown = errors.New("no such countdown")
	// ErrNoSuchStopwatch is returned when a stopwatch id is unknown.
	ErrNoSuchStopwatch = errors.New("no such stopwatch")
)

// Token is a cross-goroutine stop signal. Once cancelled it stays cancelled.
type Token struct {
	set atomic.Bool
}

// NewToken returns a token that is not cancelled.
func NewToken() *Token { return &Token{} }

// Cancel sets the token. Calling it again has no further effect.
func (t *Token) Cancel() { t.set.Store(true) }

// Cancelled reports whether Cancel has been called. It never blocks.
func (t *Token) Cancelled() bool { return t.set.Load() }

// Display is the transient resource a timer renders into. The presentation
// layer owns it; the engine only asks whether it still exists.
type Display interface {
	// Alive reports whether the resource still exists. It must be safe to
	// call from any goroutine.
	Alive() bool
	// Destroy tears the resource down. Destroying twice is harmless.
	Destroy()
	SetText(text string)
	// SetHighlight is the alarm's visual blink. Safe from any goroutine.
	SetHighlight(on bool)
}

// Beeper emits one audible cue.
type Beeper interface {
	Beep()
}

// BeeperFunc adapts a function to a Beeper.
type BeeperFunc func()

func (f BeeperFunc) Beep() { f() }

// Sleeper blocks the calling goroutine for d. Alarm workers use it for their
// cadence so tests can substitute virtual time.
type Sleeper func(d time.Duration)

// Cadence shapes one alarm cycle: Beeps cues BeepGap apart, Blinks on/off
// cycles of BlinkHalf each way, then Pause before the next cycle.
type Cadence struct {
	Beeps     int
	BeepGap   time.Duration
	Blinks    int
	BlinkHalf time.Duration
	Pause     time.Duration
}

// DefaultCadence is three short beeps, three blinks and a 1.5s rest.
func DefaultCadence() Cadence {
	return Cadence{
		Beeps:     3,
		BeepGap:   120 * time.Millisecond,
		Blinks:    3,
		BlinkHalf: 150 * time.Millisecond,
		Pause:     1500 * time.Millisecond,
	}
}

// withDefaults fills every zero field from DefaultCadence.
func (c Cadence) withDefaults() Cadence {
	d := DefaultCadence()
	if c.Beeps <= 0 {
		c.Beeps = d.Beeps
	}
	if c.BeepGap <= 0 {
		c.BeepGap = d.BeepGap
	}
	if c.Blinks <= 0 {
		c.Blinks = d.Blinks
	}
	if c.BlinkHalf <= 0 {
		c.BlinkHalf = d.BlinkHalf
	}
	if c.Pause <= 0 {
		c.Pause = d.Pause
	}
	return c
}

// FormatClock renders whole seconds as HH:MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatElapsed renders a stopwatch reading as HH:MM:SS.s.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	tenths := int64(d / (100 * time.Millisecond))
	h := tenths / 36000
	m := (tenths % 36000) / 600
	s := tenths % 600
	return fmt.Sprintf("%02d:%02d:%02d.%d", h, m, s/10, s%10)
}

// ParseClock parses "hh:mm" or "hh:mm:ss" into seconds.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		vals[i] = n
	}
	return vals[0]*3600 + vals[1]*60 + vals[2], nil
}
