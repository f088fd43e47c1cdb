package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"github.com/fakeyudi/freeterm/internal/command"
	"github.com/fakeyudi/freeterm/internal/display"
	"github.com/fakeyudi/freeterm/internal/loop"
	"github.com/fakeyudi/freeterm/internal/output"
	"github.com/fakeyudi/freeterm/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestSession(t *testing.T) (*session.Session, *loop.Manual, *output.Buffer) {
	t.Helper()
	m := loop.NewManual()
	buf := &output.Buffer{}
	s, err := session.New(session.Options{Out: buf, Scheduler: m, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s, m, buf
}

func TestNewRequiresSinkAndScheduler(t *testing.T) {
	if _, err := session.New(session.Options{Scheduler: loop.NewManual()}); err == nil {
		t.Fatal("New without a sink succeeded")
	}
	if _, err := session.New(session.Options{Out: &output.Buffer{}}); err == nil {
		t.Fatal("New without a scheduler succeeded")
	}
}

func TestSubmitEchoesRecordsAndDispatches(t *testing.T) {
	s, _, buf := newTestSession(t)
	var got []string
	s.Registry.MustRegister(command.Spec{
		Name:    "msg",
		Aliases: []string{"echo"},
		Handler: func(args []string) error { got = args; return nil },
	})

	s.Submit("  echo hello world  ")
	s.Submit("   ")
	s.Submit("nope")

	if !reflect.DeepEqual(got, []string{"hello", "world"}) {
		t.Fatalf("handler args = %q", got)
	}
	want := []string{
		"> echo hello world",
		"> nope",
		"[unknown command] 'nope'. Try 'help'.",
	}
	if !reflect.DeepEqual(buf.Lines(), want) {
		t.Fatalf("output = %q, want %q", buf.Lines(), want)
	}
	if !reflect.DeepEqual(s.History.Lines(), []string{"echo hello world", "nope"}) {
		t.Fatalf("history = %q", s.History.Lines())
	}
}

func TestSubmitIgnoredAfterExit(t *testing.T) {
	s, _, buf := newTestSession(t)
	calls := 0
	s.Registry.MustRegister(command.Spec{
		Name:    "msg",
		Handler: func([]string) error { calls++; return nil },
	})

	s.RequestExit()
	s.Submit("msg late")

	if calls != 0 || len(buf.Lines()) != 0 || s.History.Len() != 0 {
		t.Fatalf("calls=%d output=%q history=%d", calls, buf.Lines(), s.History.Len())
	}
}

func TestContinuationReceivesRawLine(t *testing.T) {
	s, _, _ := newTestSession(t)
	called := false
	s.Registry.MustRegister(command.Spec{Name: "x", Handler: func([]string) error { called = true; return nil }})

	var raw string
	s.Arm(func(line string) error { raw = line; return nil })
	s.Submit(`x "unterminated`)

	if called {
		t.Fatal("armed line reached the command table")
	}
	if raw != `x "unterminated` {
		t.Fatalf("continuation got %q", raw)
	}
	if s.Dispatcher.Pending() {
		t.Fatal("continuation still pending")
	}
}

func TestClearUsesClearer(t *testing.T) {
	s, _, buf := newTestSession(t)
	s.Println("one")
	s.Printf("%d", 2)
	if len(buf.Lines()) != 2 {
		t.Fatalf("lines = %q", buf.Lines())
	}
	s.Clear()
	if len(buf.Lines()) != 0 {
		t.Fatalf("lines after Clear = %q", buf.Lines())
	}
}

func TestDirectoryHistory(t *testing.T) {
	s, _, _ := newTestSession(t)
	root := s.Cwd()
	for _, d := range []string{"a", "a/b", "a/b/c"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.Back(1); !errors.Is(err, session.ErrNoDirHistory) {
		t.Fatalf("Back with no history: %v", err)
	}
	if _, err := s.Chdir("missing"); !errors.Is(err, session.ErrNotDirectory) {
		t.Fatalf("Chdir missing: %v", err)
	}
	for _, d := range []string{"a", "b", "c"} {
		if _, err := s.Chdir(d); err != nil {
			t.Fatalf("Chdir %s: %v", d, err)
		}
	}
	if want := filepath.Join(root, "a", "b", "c"); s.Cwd() != want {
		t.Fatalf("Cwd = %q, want %q", s.Cwd(), want)
	}

	got, err := s.Back(2)
	if err != nil || got != filepath.Join(root, "a") {
		t.Fatalf("Back(2) = %q, %v", got, err)
	}
	got, err = s.Back(3)
	if err != nil || got != root {
		t.Fatalf("Back(3) = %q, %v", got, err)
	}
}

func TestStopAllTearsDownCountdownsThenPanels(t *testing.T) {
	s, m, _ := newTestSession(t)
	p1 := s.Board.Open(display.KindCountdown, "countdown")
	p2 := s.Board.Open(display.KindCountdown, "countdown")
	sp := s.Board.Open(display.KindStopwatch, "stopwatch")
	c1, _ := s.Timers.Start(30, p1)
	c2, _ := s.Timers.Start(30, p2)
	s.Timers.StartStopwatch(sp)

	td := s.StopAll()
	if td.Countdowns != 2 || td.Resources != 1 {
		t.Fatalf("Teardown = %+v, want 2 countdowns and 1 resource", td)
	}
	if !c1.Token().Cancelled() || !c2.Token().Cancelled() {
		t.Fatal("tokens not set")
	}
	if s.Board.Len() != 0 {
		t.Fatalf("%d panels still open", s.Board.Len())
	}

	m.Advance(time.Second)
	if c1.Remaining() != 30 || c2.Remaining() != 30 {
		t.Fatal("stopped countdowns kept ticking")
	}
	if m.Pending() != 0 {
		t.Fatalf("%d callbacks still scheduled", m.Pending())
	}
}

func TestStopCountdownsKeepsOtherPanels(t *testing.T) {
	s, _, _ := newTestSession(t)
	clock := s.Board.Open(display.KindClock, "clock")
	p := s.Board.Open(display.KindCountdown, "countdown")
	if _, err := s.Timers.Start(5, p); err != nil {
		t.Fatal(err)
	}
	if n := s.StopCountdowns(); n != 1 {
		t.Fatalf("StopCountdowns = %d", n)
	}
	if !clock.Alive() || p.Alive() {
		t.Fatal("StopCountdowns touched the wrong panels")
	}
}

func TestRequestExitRunsCallbackOnce(t *testing.T) {
	calls := 0
	s, err := session.New(session.Options{
		Out:       &output.Buffer{},
		Scheduler: loop.NewManual(),
		Dir:       t.TempDir(),
		OnExit:    func() { calls++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	s.RequestExit()
	s.RequestExit()
	if !s.Exiting() || calls != 1 {
		t.Fatalf("exiting=%v calls=%d", s.Exiting(), calls)
	}
}

func TestCloseWaitsForAlarm(t *testing.T) {
	m := loop.NewManual()
	s, err := session.New(session.Options{
		Out:       &output.Buffer{},
		Scheduler: m,
		Dir:       t.TempDir(),
		Sleep:     func(time.Duration) { time.Sleep(time.Millisecond) },
	})
	if err != nil {
		t.Fatal(err)
	}
	p := s.Board.Open(display.KindCountdown, "countdown")
	c, _ := s.Timers.Start(1, p)
	m.Advance(time.Second)

	td := s.Close()
	if td.Countdowns != 1 || !c.Token().Cancelled() {
		t.Fatalf("Close teardown = %+v", td)
	}
}

// Feature: freeterm, Property 8: every non-blank submitted line is echoed and recorded once
func TestSubmitRecordsNonBlankLines(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, _, buf := newTestSession(t)
		lines := rapid.SliceOfN(rapid.StringMatching(`[ a-z]{0,8}`), 0, 20).Draw(rt, "lines")

		var want []string
		for _, l := range lines {
			s.Submit(l)
			if trimmed := strings.TrimSpace(l); trimmed != "" {
				want = append(want, trimmed)
			}
		}
		if s.History.Len() != len(want) {
			rt.Fatalf("history has %d lines, want %d", s.History.Len(), len(want))
		}
		echoes := 0
		for _, out := range buf.Lines() {
			if strings.HasPrefix(out, "> ") {
				echoes++
			}
		}
		if echoes != len(want) {
			rt.Fatalf("%d echoes, want %d", echoes, len(want))
		}
	})
}
