// Package session ties the command table, history, timers and panels of one
// console together. A Session is owned by the scheduler goroutine: every
// method except ID and the accessors of immutable fields must run there.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeyudi/freeterm/internal/command"
	"github.com/fakeyudi/freeterm/internal/display"
	"github.com/fakeyudi/freeterm/internal/history"
	"github.com/fakeyudi/freeterm/internal/loop"
	"github.com/fakeyudi/freeterm/internal/output"
	"github.com/fakeyudi/freeterm/internal/timer"
)

var (
	// ErrNoDirHistory is returned by Back when there is no earlier directory.
	ErrNoDirHistory = errors.New("directory history is empty")
	// ErrNotDirectory is returned by Chdir for a path that is not a directory.
	ErrNotDirectory = errors.New("directory not found")
)

// Options configures a Session. Out and Scheduler are required.
type Options struct {
	Out       output.Sink
	Scheduler loop.Scheduler
	Logger    *zap.Logger
	Beeper    timer.Beeper
	Cadence   timer.Cadence
	Sleep     timer.Sleeper
	Now       func() time.Time
	// Dir is the starting working directory. Empty means the process's.
	Dir string
	// OnExit runs once, on the scheduler goroutine, when exit is requested.
	OnExit func()
}

// Teardown reports what a bulk stop destroyed.
type Teardown struct {
	Countdowns int
	Resources  int
}

// Session is one interactive console.
type Session struct {
	ID        string
	StartTime time.Time

	History    *history.Ledger
	Registry   *command.Registry
	Dispatcher *command.Dispatcher
	Timers     *timer.Engine
	Board      *display.Board

	out    output.Sink
	sched  loop.Scheduler
	log    *zap.Logger
	now    func() time.Time
	dirs   []string
	onExit func()

	exiting bool
}

// New returns a Session with an empty command table.
func New(opts Options) (*Session, error) {
	if opts.Out == nil || opts.Scheduler == nil {
		return nil, errors.New("session: output sink and scheduler are required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	id := uuid.NewString()
	log = log.With(zap.String("session", id))
	registry := command.NewRegistry()
	s := &Session{
		ID:         id,
		StartTime:  now(),
		History:    history.New(),
		Registry:   registry,
		Dispatcher: command.NewDispatcher(registry, opts.Out, log),
		Timers: timer.NewEngine(timer.Options{
			Scheduler: opts.Scheduler,
			Beeper:    opts.Beeper,
			Cadence:   opts.Cadence,
			Sleep:     opts.Sleep,
			Now:       now,
			Logger:    log,
		}),
		Board:  display.NewBoard(),
		out:    opts.Out,
		sched:  opts.Scheduler,
		log:    log,
		now:    now,
		dirs:   []string{dir},
		onExit: opts.OnExit,
	}
	log.Info("session started", zap.String("dir", dir))
	return s, nil
}

// Submit handles one line typed at the prompt. Blank lines, and every line
// once exit has been requested, are ignored; anything else is echoed, recorded
// and dispatched.
func (s *Session) Submit(line string) {
	line = strings.TrimSpace(line)
	if line == "" || s.exiting {
		return
	}
	s.out.AppendLine("> " + line)
	s.History.Record(line)
	s.Dispatcher.Dispatch(line)
}

// Arm routes the next submitted line to c instead of the command table.
func (s *Session) Arm(c command.Continuation) { s.Dispatcher.Arm(c) }

// Println writes one line to the console.
func (s *Session) Println(line string) { s.out.AppendLine(line) }

// Printf formats and writes one line to the console.
func (s *Session) Printf(format string, args ...any) {
	s.out.AppendLine(fmt.Sprintf(format, args...))
}

// Clear wipes the console if the sink supports it.
func (s *Session) Clear() {
	if c, ok := s.out.(output.Clearer); ok {
		c.Clear()
	}
}

// Scheduler returns the scheduler the session's callbacks run on.
func (s *Session) Scheduler() loop.Scheduler { return s.sched }

// Logger returns the session's logger.
func (s *Session) Logger() *zap.Logger { return s.log }

// Now returns the session clock's current time.
func (s *Session) Now() time.Time { return s.now() }

// Cwd returns the current working directory.
func (s *Session) Cwd() string { return s.dirs[len(s.dirs)-1] }

// Resolve turns path into an absolute path relative to Cwd.
func (s *Session) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.Cwd(), path)
}

// Chdir moves to path and pushes it onto the directory history.
func (s *Session) Chdir(path string) (string, error) {
	target := s.Resolve(path)
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, target)
	}
	s.dirs = append(s.dirs, target)
	return target, nil
}

// Back returns up to steps directories along the history. The starting
// directory is never popped.
func (s *Session) Back(steps int) (string, error) {
	if len(s.dirs) <= 1 {
		return "", ErrNoDirHistory
	}
	for i := 0; i < steps && len(s.dirs) > 1; i++ {
		s.dirs = s.dirs[:len(s.dirs)-1]
	}
	return s.Cwd(), nil
}

// StopCountdowns stops every countdown and returns how many there were.
func (s *Session) StopCountdowns() int {
	return s.Timers.StopAll()
}

// StopAll stops every countdown, then closes every panel that is still open.
func (s *Session) StopAll() Teardown {
	td := Teardown{Countdowns: s.Timers.StopAll()}
	td.Resources = s.Board.CloseAll()
	s.log.Info("bulk stop",
		zap.Int("countdowns", td.Countdowns),
		zap.Int("resources", td.Resources))
	return td
}

// RequestExit marks the session as finished and runs the exit callback.
// Later calls do nothing.
func (s *Session) RequestExit() {
	if s.exiting {
		return
	}
	s.exiting = true
	s.log.Info("exit requested")
	if s.onExit != nil {
		s.onExit()
	}
}

// Exiting reports whether exit has been requested.
func (s *Session) Exiting() bool { return s.exiting }

// Close tears everything down and waits for alarm workers to return.
func (s *Session) Close() Teardown {
	td := s.StopAll()
	s.Timers.Wait()
	s.log.Info("session closed", zap.Duration("uptime", s.now().Sub(s.StartTime)))
	return td
}
