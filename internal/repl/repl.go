// Package repl is the line-mode console used when stdin is not a terminal
// or --plain is given.
package repl

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/fakeyudi/freeterm/internal/loop"
	"github.com/fakeyudi/freeterm/internal/session"
)

// Prompter reads one edited line. *liner.State satisfies it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// NewPrompter returns a liner prompt. Ctrl+C aborts the current prompt.
func NewPrompter() Prompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return line
}

// Writer is a session sink that prints each line to w.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) AppendLine(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.w, line)
}

// Clear erases the terminal screen.
func (w *Writer) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprint(w.w, "\x1b[H\x1b[2J")
}

type prompted struct {
	line string
	err  error
}

// Run prompts for lines and submits each one on the session's loop until the
// input ends, Ctrl+C is pressed or exit is closed. Exit is honoured even while
// a prompt is waiting for input. The prompter is closed on return.
func Run(lp *loop.Loop, sess *session.Session, p Prompter, prompt string, exit <-chan struct{}) error {
	defer p.Close()
	lines := make(chan prompted, 1)
	for {
		select {
		case <-exit:
			return nil
		default:
		}

		go func() {
			line, err := p.Prompt(prompt)
			lines <- prompted{line, err}
		}()

		var in prompted
		select {
		case <-exit:
			return nil
		case in = <-lines:
		}

		if in.err != nil {
			if errors.Is(in.err, liner.ErrPromptAborted) || errors.Is(in.err, io.EOF) {
				lp.Call(sess.RequestExit) //nolint:errcheck
				return nil
			}
			return in.err
		}
		if strings.TrimSpace(in.line) != "" {
			p.AppendHistory(in.line)
		}
		if err := lp.Call(func() { sess.Submit(in.line) }); err != nil {
			// Loop stopped underneath us.
			return nil
		}
	}
}
