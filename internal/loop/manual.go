package loop

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven by virtual time. Nothing runs until Advance is
// called, which makes tick-by-tick assertions deterministic. Manual is not safe
// for concurrent use; it stands in for the loop goroutine in tests.
type Manual struct {
	now     time.Duration
	seq     int
	pending []manualTask
}

type manualTask struct {
	at  time.Duration
	seq int
	fn  func()
}

// NewManual returns a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	m.seq++
	m.pending = append(m.pending, manualTask{at: m.now + d, seq: m.seq, fn: fn})
}

// Advance moves virtual time forward by d and runs every task that falls due,
// in due-time order. Tasks scheduled by those tasks run too if they fall due
// within the same window.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now + d
	ran := 0
	for {
		i, ok := m.earliest(target)
		if !ok {
			break
		}
		t := m.pending[i]
		m.pending = append(m.pending[:i], m.pending[i+1:]...)
		m.now = t.at
		t.fn()
		ran++
	}
	m.now = target
	return ran
}

// Pending reports how many tasks are waiting.
func (m *Manual) Pending() int { return len(m.pending) }

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration { return m.now }

func (m *Manual) earliest(limit time.Duration) (int, bool) {
	if len(m.pending) == 0 {
		return 0, false
	}
	idx := make([]int, len(m.pending))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ta, tb := m.pending[idx[a]], m.pending[idx[b]]
		if ta.at != tb.at {
			return ta.at < tb.at
		}
		return ta.seq < tb.seq
	})
	first := idx[0]
	if m.pending[first].at > limit {
		return 0, false
	}
	return first, true
}
