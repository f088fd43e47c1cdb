// Package output defines the line sink the session writes to. The session never
// renders anything itself; the presentation layer supplies the sink.
package output

import (
	"strings"
	"sync"
)

// Sink receives plain text lines from the session.
type Sink interface {
	AppendLine(line string)
}

// Clearer is implemented by sinks that can wipe what they have displayed.
type Clearer interface {
	Clear()
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(line string)

func (f SinkFunc) AppendLine(line string) { f(line) }

// Buffer is a Sink that keeps every line in memory. It is safe for concurrent use.
type Buffer struct {
	mu      sync.Mutex
	lines   []string
	version uint64
}

func (b *Buffer) AppendLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Multi-line writes are stored one line per entry.
	b.lines = append(b.lines, strings.Split(line, "\n")...)
	b.version++
}

// Clear drops everything recorded so far.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
	b.version++
}

// Version increases on every change, so readers can skip redundant redraws.
func (b *Buffer) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Lines returns a copy of the recorded lines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// String joins the recorded lines with newlines.
func (b *Buffer) String() string {
	return strings.Join(b.Lines(), "\n")
}
