package timer

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fakeyudi/freeterm/internal/loop"
)

const (
	tickInterval   = time.Second
	redrawInterval = 100 * time.Millisecond
)

// Options configures an Engine. Scheduler is required; the rest have defaults.
type Options struct {
	Scheduler loop.Scheduler
	Beeper    Beeper
	Cadence   Cadence
	Sleep     Sleeper
	Now       func() time.Time
	Logger    *zap.Logger
}

// Engine owns the live countdowns and stopwatches of one session. Except for
// Wait, its methods must be called on the scheduler goroutine.
type Engine struct {
	sched   loop.Scheduler
	beeper  Beeper
	cadence Cadence
	sleep   Sleeper
	now     func() time.Time
	log     *zap.Logger

	nextCountdown int
	countdowns    []*Countdown

	nextStopwatch int
	stopwatches   []*Stopwatch

	workers sync.WaitGroup
}

// NewEngine returns an Engine with no live timers.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		sched:   opts.Scheduler,
		beeper:  opts.Beeper,
		cadence: opts.Cadence,
		sleep:   opts.Sleep,
		now:     opts.Now,
		log:     opts.Logger,
	}
	if e.beeper == nil {
		e.beeper = BeeperFunc(func() {})
	}
	e.cadence = e.cadence.withDefaults()
	if e.sleep == nil {
		e.sleep = time.Sleep
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Start begins a countdown of the given number of seconds rendered into d.
// The first tick fires one second later.
func (e *Engine) Start(seconds int, d Display) (*Countdown, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: %d seconds", ErrInvalidDuration, seconds)
	}
	e.reap()
	e.nextCountdown++
	c := newCountdown(e.nextCountdown, seconds, d)
	e.countdowns = append(e.countdowns, c)
	d.SetText(FormatClock(seconds))
	e.log.Info("countdown started", zap.Int("id", c.id), zap.Int("seconds", seconds))
	e.sched.After(tickInterval, func() { e.tick(c) })
	return c, nil
}

func (e *Engine) tick(c *Countdown) {
	if c.state == Stopped {
		return
	}
	if c.token.Cancelled() || !c.display.Alive() {
		e.abandon(c, "tick")
		return
	}
	switch c.Tick() {
	case Running:
		c.display.SetText(FormatClock(c.remaining))
		e.sched.After(tickInterval, func() { e.tick(c) })
	case Alarming:
		c.display.SetText(FormatClock(0))
		e.log.Info("countdown alarming", zap.Int("id", c.id))
		e.spawnAlarm(c)
	}
}

func (e *Engine) spawnAlarm(c *Countdown) {
	e.workers.Add(1)
	go func() {
		defer e.workers.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("alarm worker panicked",
					zap.Int("id", c.id),
					zap.Any("panic", r),
					zap.Stack("stack"))
			}
		}()
		ringAlarm(c.token, c.display, e.beeper, e.cadence, e.sleep)
	}()
}

// ringAlarm repeats the alarm cycle until tok is cancelled or d is gone. Both
// are checked before every cue, and long waits are cut into short polled
// slices so a stop is noticed within one beep gap.
func ringAlarm(tok *Token, d Display, b Beeper, cad Cadence, sleep Sleeper) {
	live := func() bool { return !tok.Cancelled() && d.Alive() }
	defer func() {
		if d.Alive() {
			d.SetHighlight(false)
		}
	}()

	for live() {
		for i := 0; i < cad.Beeps; i++ {
			if !live() {
				return
			}
			b.Beep()
			sleep(cad.BeepGap)
		}
		for i := 0; i < cad.Blinks; i++ {
			if !live() {
				return
			}
			d.SetHighlight(true)
			sleep(cad.BlinkHalf)
			if !live() {
				return
			}
			d.SetHighlight(false)
			sleep(cad.BlinkHalf)
		}
		slice := cad.BeepGap
		if slice <= 0 {
			slice = cad.Pause
		}
		for waited := time.Duration(0); waited < cad.Pause; waited += slice {
			if !live() {
				return
			}
			sleep(min(slice, cad.Pause-waited))
		}
	}
}

// Stop cancels countdown id, destroys its display if it still exists and
// removes it from the live set.
func (e *Engine) Stop(id int) error {
	e.reap()
	for i, c := range e.countdowns {
		if c.id != id {
			continue
		}
		e.halt(c)
		e.countdowns = append(e.countdowns[:i], e.countdowns[i+1:]...)
		e.log.Info("countdown stopped", zap.Int("id", id))
		return nil
	}
	return fmt.Errorf("%w: %d", ErrNoSuchCountdown, id)
}

// StopAll cancels every live countdown, destroys each display that still
// exists and empties the live set. It returns how many countdowns it stopped.
// Stopwatches are left alone.
func (e *Engine) StopAll() int {
	e.reap()
	n := len(e.countdowns)
	for _, c := range e.countdowns {
		e.halt(c)
	}
	e.countdowns = nil
	if n > 0 {
		e.log.Info("countdowns stopped", zap.Int("count", n))
	}
	return n
}

func (e *Engine) halt(c *Countdown) {
	c.token.Cancel()
	if c.display.Alive() {
		c.display.Destroy()
	}
	c.state = Stopped
}

func (e *Engine) abandon(c *Countdown, where string) {
	c.state = Stopped
	for i, live := range e.countdowns {
		if live == c {
			e.countdowns = append(e.countdowns[:i], e.countdowns[i+1:]...)
			break
		}
	}
	e.log.Info("countdown abandoned",
		zap.Int("id", c.id),
		zap.String("at", where),
		zap.Bool("cancelled", c.token.Cancelled()))
}

// reap drops countdowns whose display has been closed. Pending ticks see the
// Stopped state and alarm workers see the dead display, so both end on their
// own; this only keeps the live set honest.
func (e *Engine) reap() {
	kept := e.countdowns[:0]
	for _, c := range e.countdowns {
		if !c.display.Alive() {
			e.log.Info("countdown abandoned",
				zap.Int("id", c.id),
				zap.String("at", "reap"),
				zap.String("state", c.state.String()))
			c.state = Stopped
			continue
		}
		kept = append(kept, c)
	}
	clear(e.countdowns[len(kept):])
	e.countdowns = kept
}

// Countdowns returns the live countdowns in start order.
func (e *Engine) Countdowns() []*Countdown {
	e.reap()
	out := make([]*Countdown, len(e.countdowns))
	copy(out, e.countdowns)
	return out
}

// Wait blocks until every alarm worker has exited. It is safe from any
// goroutine.
func (e *Engine) Wait() {
	e.workers.Wait()
}

// StartStopwatch registers a paused stopwatch rendered into d and redraws it
// every 100ms until d is gone.
func (e *Engine) StartStopwatch(d Display) *Stopwatch {
	e.nextStopwatch++
	sw := NewStopwatch(e.now)
	sw.id = e.nextStopwatch
	sw.display = d
	e.stopwatches = append(e.stopwatches, sw)
	d.SetText(FormatElapsed(0))
	e.sched.After(redrawInterval, func() { e.redraw(sw) })
	return sw
}

func (e *Engine) redraw(sw *Stopwatch) {
	if !sw.display.Alive() {
		for i, live := range e.stopwatches {
			if live == sw {
				e.stopwatches = append(e.stopwatches[:i], e.stopwatches[i+1:]...)
				break
			}
		}
		return
	}
	sw.display.SetText(FormatElapsed(sw.Elapsed()))
	e.sched.After(redrawInterval, func() { e.redraw(sw) })
}

// Stopwatch returns live stopwatch id.
func (e *Engine) Stopwatch(id int) (*Stopwatch, error) {
	for _, sw := range e.stopwatches {
		if sw.id == id && sw.display.Alive() {
			return sw, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNoSuchStopwatch, id)
}

// Stopwatches returns the stopwatches whose display still exists.
func (e *Engine) Stopwatches() []*Stopwatch {
	var out []*Stopwatch
	for _, sw := range e.stopwatches {
		if sw.display.Alive() {
			out = append(out, sw)
		}
	}
	return out
}
