// Package history records submitted command lines and lets the prompt browse
// back through them.
package history

// notBrowsing is the cursor value when the prompt is not recalling a line.
const notBrowsing = -1

// Ledger is an append-only list of submitted lines with a browse cursor.
// It is owned by the scheduler goroutine.
type Ledger struct {
	lines  []string
	cursor int
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{cursor: notBrowsing}
}

// Record appends line and stops browsing.
func (l *Ledger) Record(line string) {
	l.lines = append(l.lines, line)
	l.cursor = notBrowsing
}

// Previous moves the cursor one line back, starting from the newest line and
// stopping at the oldest. It returns false only when the ledger is empty.
func (l *Ledger) Previous() (string, bool) {
	if len(l.lines) == 0 {
		return "", false
	}
	if l.cursor == notBrowsing {
		l.cursor = len(l.lines) - 1
	} else if l.cursor > 0 {
		l.cursor--
	}
	return l.lines[l.cursor], true
}

// Next moves the cursor one line forward. It does nothing when not browsing.
//
// The step that lands on the newest line returns it and also stops browsing,
// so the following Next is a no-op until Previous is called again.
func (l *Ledger) Next() (string, bool) {
	if l.cursor == notBrowsing {
		return "", false
	}
	last := len(l.lines) - 1
	if l.cursor < last {
		l.cursor++
	}
	line := l.lines[l.cursor]
	if l.cursor == last {
		l.cursor = notBrowsing
	}
	return line, true
}

// Browsing reports whether the cursor is on a recalled line.
func (l *Ledger) Browsing() bool { return l.cursor != notBrowsing }

// Cursor returns the browse index, or -1 when not browsing.
func (l *Ledger) Cursor() int { return l.cursor }

// Len returns the number of recorded lines.
func (l *Ledger) Len() int { return len(l.lines) }

// Lines returns a copy of the recorded lines, oldest first.
func (l *Ledger) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
