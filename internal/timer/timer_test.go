package timer

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"github.com/fakeyudi/freeterm/internal/loop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDisplay struct {
	closed     atomic.Bool
	highlights atomic.Int32

	mu    sync.Mutex
	texts []string
}

func (d *fakeDisplay) Alive() bool { return !d.closed.Load() }
func (d *fakeDisplay) Destroy()    { d.closed.Store(true) }

func (d *fakeDisplay) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, text)
}

func (d *fakeDisplay) SetHighlight(on bool) {
	if on {
		d.highlights.Add(1)
	}
}

func (d *fakeDisplay) last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.texts) == 0 {
		return ""
	}
	return d.texts[len(d.texts)-1]
}

type countingBeeper struct{ n atomic.Int32 }

func (b *countingBeeper) Beep() { b.n.Add(1) }

func fastCadence() Cadence {
	return Cadence{
		Beeps:     3,
		BeepGap:   time.Millisecond,
		Blinks:    3,
		BlinkHalf: time.Millisecond,
		Pause:     5 * time.Millisecond,
	}
}

func TestCountdownReachesAlarm(t *testing.T) {
	m := loop.NewManual()
	e := NewEngine(Options{Scheduler: m, Cadence: fastCadence()})
	d := &fakeDisplay{}

	c, err := e.Start(3, d)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := d.last(); got != "00:00:03" {
		t.Fatalf("initial text = %q", got)
	}

	for _, want := range []int{2, 1} {
		m.Advance(time.Second)
		if c.Remaining() != want || c.State() != Running {
			t.Fatalf("remaining=%d state=%v, want %d running", c.Remaining(), c.State(), want)
		}
	}
	m.Advance(time.Second)
	if c.Remaining() != 0 || c.State() != Alarming {
		t.Fatalf("remaining=%d state=%v, want 0 alarming", c.Remaining(), c.State())
	}
	if m.Pending() != 0 {
		t.Fatalf("alarming countdown still has %d scheduled ticks", m.Pending())
	}
	if c.Tick() != Alarming || c.Remaining() != 0 {
		t.Fatal("extra tick moved an alarming countdown")
	}

	if n := e.StopAll(); n != 1 {
		t.Fatalf("StopAll = %d, want 1", n)
	}
	e.Wait()
	if d.Alive() {
		t.Fatal("display survived StopAll")
	}
}

func TestStartRejectsNonPositive(t *testing.T) {
	e := NewEngine(Options{Scheduler: loop.NewManual()})
	for _, s := range []int{0, -5} {
		if _, err := e.Start(s, &fakeDisplay{}); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Start(%d) error = %v, want ErrInvalidDuration", s, err)
		}
	}
	if len(e.Countdowns()) != 0 {
		t.Fatal("rejected countdown was registered")
	}
}

func TestCancelDuringAlarmSilencesCues(t *testing.T) {
	m := loop.NewManual()
	beeper := &countingBeeper{}
	var (
		c          *Countdown
		sleeps     int
		cuesAtStop int32
	)
	d := &fakeDisplay{}
	cues := func() int32 { return beeper.n.Load() + d.highlights.Load() }
	e := NewEngine(Options{
		Scheduler: m,
		Beeper:    beeper,
		Cadence:   fastCadence(),
		Sleep: func(time.Duration) {
			sleeps++
			if sleeps == 2 {
				c.Token().Cancel()
				cuesAtStop = cues()
			}
		},
	})

	var err error
	c, err = e.Start(1, d)
	if err != nil {
		t.Fatal(err)
	}
	m.Advance(time.Second)
	e.Wait()

	if cuesAtStop != 2 {
		t.Fatalf("cues before cancel = %d, want 2", cuesAtStop)
	}
	if got := cues(); got != cuesAtStop {
		t.Fatalf("cues after cancel: %d, want %d", got, cuesAtStop)
	}
}

func TestClosedDisplayEndsAlarmWithoutToken(t *testing.T) {
	m := loop.NewManual()
	beeper := &countingBeeper{}
	d := &fakeDisplay{}
	e := NewEngine(Options{
		Scheduler: m,
		Beeper:    beeper,
		Cadence:   fastCadence(),
		Sleep:     func(time.Duration) { d.Destroy() },
	})

	c, err := e.Start(1, d)
	if err != nil {
		t.Fatal(err)
	}
	m.Advance(time.Second)
	e.Wait()

	if c.Token().Cancelled() {
		t.Fatal("closing the display set the token")
	}
	if got := beeper.n.Load(); got != 1 {
		t.Fatalf("beeps = %d, want 1", got)
	}
	if len(e.Countdowns()) != 0 {
		t.Fatal("alarming countdown with a closed display is still live")
	}
	if c.State() != Stopped {
		t.Fatalf("state = %v, want stopped", c.State())
	}
}

func TestClosedDisplayAbandonsTick(t *testing.T) {
	m := loop.NewManual()
	e := NewEngine(Options{Scheduler: m})
	d := &fakeDisplay{}

	c, err := e.Start(5, d)
	if err != nil {
		t.Fatal(err)
	}
	m.Advance(time.Second)
	d.Destroy()
	m.Advance(time.Second)

	if c.Remaining() != 4 {
		t.Fatalf("remaining = %d, want 4", c.Remaining())
	}
	if c.State() != Stopped || c.Token().Cancelled() {
		t.Fatalf("state=%v cancelled=%v, want stopped and not cancelled", c.State(), c.Token().Cancelled())
	}
	if m.Pending() != 0 || len(e.Countdowns()) != 0 {
		t.Fatal("abandoned countdown still scheduled or live")
	}
}

func TestClosedDisplayLeavesLiveSetBeforeNextTick(t *testing.T) {
	m := loop.NewManual()
	e := NewEngine(Options{Scheduler: m})
	d := &fakeDisplay{}

	c, err := e.Start(10, d)
	if err != nil {
		t.Fatal(err)
	}
	d.Destroy()

	if err := e.Stop(c.ID()); !errors.Is(err, ErrNoSuchCountdown) {
		t.Fatalf("Stop on a closed countdown = %v, want ErrNoSuchCountdown", err)
	}
	if n := e.StopAll(); n != 0 {
		t.Fatalf("StopAll = %d, want 0", n)
	}
	if c.State() != Stopped || c.Token().Cancelled() {
		t.Fatalf("state=%v cancelled=%v, want stopped and not cancelled", c.State(), c.Token().Cancelled())
	}
	m.Advance(time.Second)
	if c.Remaining() != 10 || m.Pending() != 0 {
		t.Fatalf("remaining=%d pending=%d after reaping", c.Remaining(), m.Pending())
	}
}

func TestPartialCadenceFilledFromDefaults(t *testing.T) {
	e := NewEngine(Options{Scheduler: loop.NewManual(), Cadence: Cadence{BeepGap: time.Millisecond}})
	want := DefaultCadence()
	want.BeepGap = time.Millisecond
	if e.cadence != want {
		t.Fatalf("cadence = %+v, want %+v", e.cadence, want)
	}
	if got := NewEngine(Options{Scheduler: loop.NewManual()}).cadence; got != DefaultCadence() {
		t.Fatalf("zero cadence = %+v", got)
	}
}

func TestStopByID(t *testing.T) {
	m := loop.NewManual()
	e := NewEngine(Options{Scheduler: m})
	d1, d2 := &fakeDisplay{}, &fakeDisplay{}
	c1, _ := e.Start(10, d1)
	c2, _ := e.Start(10, d2)

	if err := e.Stop(c1.ID()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !c1.Token().Cancelled() || d1.Alive() {
		t.Fatal("stopped countdown kept its token clear or its display open")
	}
	if err := e.Stop(c1.ID()); !errors.Is(err, ErrNoSuchCountdown) {
		t.Fatalf("second Stop error = %v", err)
	}
	m.Advance(3 * time.Second)
	if c1.Remaining() != 10 {
		t.Fatalf("stopped countdown kept ticking: %d", c1.Remaining())
	}
	if c2.Remaining() != 7 {
		t.Fatalf("other countdown remaining = %d, want 7", c2.Remaining())
	}
	e.StopAll()
}

func TestStopAllLeavesStopwatches(t *testing.T) {
	m := loop.NewManual()
	e := NewEngine(Options{Scheduler: m})
	d1, d2, sd := &fakeDisplay{}, &fakeDisplay{}, &fakeDisplay{}
	c1, _ := e.Start(60, d1)
	c2, _ := e.Start(60, d2)
	sw := e.StartStopwatch(sd)

	if n := e.StopAll(); n != 2 {
		t.Fatalf("StopAll = %d, want 2", n)
	}
	for _, c := range []*Countdown{c1, c2} {
		if !c.Token().Cancelled() || c.Display().Alive() || c.State() != Stopped {
			t.Fatalf("countdown %d not fully stopped", c.ID())
		}
	}
	if !sd.Alive() {
		t.Fatal("StopAll closed a stopwatch display")
	}
	if got, err := e.Stopwatch(sw.ID()); err != nil || got != sw {
		t.Fatalf("Stopwatch(%d) = %v, %v", sw.ID(), got, err)
	}
	if n := e.StopAll(); n != 0 {
		t.Fatalf("second StopAll = %d, want 0", n)
	}
}

func TestTokenCancelIdempotent(t *testing.T) {
	tok := NewToken()
	if tok.Cancelled() {
		t.Fatal("new token is cancelled")
	}
	tok.Cancel()
	tok.Cancel()
	if !tok.Cancelled() {
		t.Fatal("token not cancelled")
	}
}

func TestAlarmWorkerPanicIsContained(t *testing.T) {
	m := loop.NewManual()
	e := NewEngine(Options{
		Scheduler: m,
		Beeper:    BeeperFunc(func() { panic("speaker gone") }),
		Cadence:   fastCadence(),
	})
	d := &fakeDisplay{}
	if _, err := e.Start(1, d); err != nil {
		t.Fatal(err)
	}
	m.Advance(time.Second)
	e.Wait()
	e.StopAll()
}

func TestStopwatchToggle(t *testing.T) {
	now := time.Unix(0, 0)
	sw := NewStopwatch(func() time.Time { return now })

	if sw.Running() || sw.Elapsed() != 0 {
		t.Fatal("new stopwatch should be paused at zero")
	}
	if !sw.Toggle() {
		t.Fatal("first Toggle should start")
	}
	now = now.Add(1500 * time.Millisecond)
	if sw.Toggle() {
		t.Fatal("second Toggle should pause")
	}
	now = now.Add(time.Hour)
	if got := sw.Elapsed(); got != 1500*time.Millisecond {
		t.Fatalf("paused Elapsed = %v", got)
	}
	sw.Toggle()
	now = now.Add(500 * time.Millisecond)
	if got := sw.Elapsed(); got != 2*time.Second {
		t.Fatalf("resumed Elapsed = %v", got)
	}
}

func TestStopwatchRedrawEndsWithDisplay(t *testing.T) {
	m := loop.NewManual()
	now := time.Unix(0, 0)
	e := NewEngine(Options{Scheduler: m, Now: func() time.Time { return now.Add(m.Now()) }})
	d := &fakeDisplay{}

	sw := e.StartStopwatch(d)
	if d.last() != "00:00:00.0" {
		t.Fatalf("initial text = %q", d.last())
	}
	sw.Toggle()
	m.Advance(300 * time.Millisecond)
	if d.last() != "00:00:00.3" {
		t.Fatalf("text after 300ms = %q", d.last())
	}

	d.Destroy()
	m.Advance(100 * time.Millisecond)
	if m.Pending() != 0 {
		t.Fatal("redraw kept rescheduling after the display closed")
	}
	if len(e.Stopwatches()) != 0 {
		t.Fatal("stopwatch still live")
	}
	if _, err := e.Stopwatch(sw.ID()); !errors.Is(err, ErrNoSuchStopwatch) {
		t.Fatalf("Stopwatch error = %v", err)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{61, "00:01:01"},
		{3*3600 + 25*60 + 7, "03:25:07"},
		{-4, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.0"},
		{1250 * time.Millisecond, "00:00:01.2"},
		{61*time.Minute + 9*time.Second + 900*time.Millisecond, "01:01:09.9"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:01", 60, false},
		{"01:00:05", 3605, false},
		{" 0:0:30 ", 30, false},
		{"5", 0, true},
		{"a:b", 0, true},
		{"1:2:3:4", 0, true},
		{"00:-1", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidDuration) {
				t.Errorf("ParseClock(%q) error = %v, want ErrInvalidDuration", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseClock(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

// Feature: freeterm, Property 6: remaining time never increases and never goes below zero
func TestRemainingMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.IntRange(1, 500).Draw(t, "seconds")
		ticks := rapid.IntRange(0, 600).Draw(t, "ticks")
		c := newCountdown(1, start, &fakeDisplay{})

		prev := c.Remaining()
		for i := 0; i < ticks; i++ {
			c.Tick()
			r := c.Remaining()
			if r < 0 || r > prev {
				t.Fatalf("tick %d: remaining %d after %d", i, r, prev)
			}
			if (r == 0) != (c.State() == Alarming) {
				t.Fatalf("tick %d: remaining %d with state %v", i, r, c.State())
			}
			prev = r
		}
	})
}

// Feature: freeterm, Property 7: a running stopwatch's elapsed time never decreases
func TestStopwatchElapsedNonDecreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Unix(0, 0)
		sw := NewStopwatch(func() time.Time { return now })
		steps := rapid.SliceOfN(rapid.IntRange(0, 1000), 1, 50).Draw(t, "steps")
		toggles := rapid.SliceOfN(rapid.Bool(), len(steps), len(steps)).Draw(t, "toggles")

		var prev time.Duration
		for i, ms := range steps {
			if toggles[i] {
				sw.Toggle()
			}
			now = now.Add(time.Duration(ms) * time.Millisecond)
			got := sw.Elapsed()
			if got < prev {
				t.Fatalf("step %d: elapsed %v after %v", i, got, prev)
			}
			prev = got
		}
	})
}
