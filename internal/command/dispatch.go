package command

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/fakeyudi/freeterm/internal/output"
)

// Continuation receives the next submitted line verbatim, outside normal
// dispatch. It runs at most once.
type Continuation func(line string) error

// Slot holds at most one pending continuation. It is owned by the scheduler
// goroutine and needs no locking.
type Slot struct {
	pending Continuation
}

// Arm installs c, replacing any continuation that is still pending.
func (s *Slot) Arm(c Continuation) {
	s.pending = c
}

// Take empties the slot and returns what it held.
func (s *Slot) Take() (Continuation, bool) {
	c := s.pending
	s.pending = nil
	return c, c != nil
}

// Armed reports whether a continuation is pending.
func (s *Slot) Armed() bool { return s.pending != nil }

// Dispatcher routes submitted lines. Faults inside handlers are reported to
// the sink and logged; they never escape Dispatch.
type Dispatcher struct {
	registry *Registry
	slot     Slot
	out      output.Sink
	log      *zap.Logger
}

// NewDispatcher returns a Dispatcher over registry that reports to out.
// A nil logger disables fault logging.
func NewDispatcher(registry *Registry, out output.Sink, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{registry: registry, out: out, log: log}
}

// Arm installs a continuation for the next submitted line.
func (d *Dispatcher) Arm(c Continuation) { d.slot.Arm(c) }

// Pending reports whether the next line will go to a continuation.
func (d *Dispatcher) Pending() bool { return d.slot.Armed() }

// Registry returns the command table the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch handles one raw line. A pending continuation gets the whole line;
// otherwise the first word is resolved against the registry.
func (d *Dispatcher) Dispatch(line string) {
	if c, ok := d.slot.Take(); ok {
		// The slot is already empty here, so a continuation may re-arm itself.
		d.run("continuation", func() error { return c(line) })
		return
	}

	words := Tokenize(line)
	if len(words) == 0 {
		return
	}
	spec, err := d.registry.Resolve(words[0])
	if err != nil {
		d.out.AppendLine(fmt.Sprintf("[unknown command] '%s'. Try 'help'.", words[0]))
		return
	}
	d.run(spec.Name, func() error { return spec.Handler(words[1:]) })
}

// run invokes fn, converting a returned error or a panic into one diagnostic line.
func (d *Dispatcher) run(name string, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("command panicked",
				zap.String("command", name),
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())))
			d.out.AppendLine(fmt.Sprintf("[error] command '%s' failed", name))
		}
	}()
	if err := fn(); err != nil {
		d.log.Debug("command returned error", zap.String("command", name), zap.Error(err))
		d.out.AppendLine("[error] " + err.Error())
	}
}
