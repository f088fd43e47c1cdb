// Package display holds the transient panels that clocks, stopwatches and
// countdowns render into.
//
// A panel can be destroyed from the prompt (close, ctrl+w) or by the timer
// that owns it. Timers notice by polling Alive, so every method here is safe
// to call from any goroutine.
package display

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Kind names what a panel shows.
type Kind string

const (
	KindClock     Kind = "clock"
	KindStopwatch Kind = "stopwatch"
	KindCountdown Kind = "countdown"
)

// Panel is one live display resource.
type Panel struct {
	id   int
	kind Kind

	alive     atomic.Bool
	highlight atomic.Bool

	onClose func(*Panel)

	mu    sync.Mutex
	title string
	text  string
}

func (p *Panel) ID() int    { return p.id }
func (p *Panel) Kind() Kind { return p.kind }

func (p *Panel) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

func (p *Panel) SetTitle(title string) {
	p.mu.Lock()
	p.title = title
	p.mu.Unlock()
}

// Alive reports whether the panel has not been destroyed.
func (p *Panel) Alive() bool { return p.alive.Load() }

// Destroy closes the panel. Only the first call has any effect.
func (p *Panel) Destroy() {
	if !p.alive.CompareAndSwap(true, false) {
		return
	}
	p.highlight.Store(false)
	if p.onClose != nil {
		p.onClose(p)
	}
}

func (p *Panel) SetText(text string) {
	p.mu.Lock()
	p.text = text
	p.mu.Unlock()
}

func (p *Panel) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

func (p *Panel) SetHighlight(on bool) { p.highlight.Store(on) }

func (p *Panel) Highlighted() bool { return p.highlight.Load() }

// Board tracks the open panels of a session.
type Board struct {
	mu     sync.Mutex
	nextID int
	panels map[int]*Panel
}

// NewBoard returns an empty Board.
func NewBoard() *Board {
	return &Board{panels: make(map[int]*Panel)}
}

// Open creates a live panel and adds it to the board. Panel ids start at 1
// and are never reused.
func (b *Board) Open(kind Kind, title string) *Panel {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	p := &Panel{id: b.nextID, kind: kind, title: title, onClose: b.forget}
	p.alive.Store(true)
	b.panels[p.id] = p
	return p
}

func (b *Board) forget(p *Panel) {
	b.mu.Lock()
	delete(b.panels, p.id)
	b.mu.Unlock()
}

// Get returns open panel id.
func (b *Board) Get(id int) (*Panel, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.panels[id]
	return p, ok
}

// Close destroys panel id. It reports false when no such panel is open.
func (b *Board) Close(id int) bool {
	p, ok := b.Get(id)
	if !ok {
		return false
	}
	p.Destroy()
	return true
}

// CloseAll destroys every open panel and returns how many there were.
func (b *Board) CloseAll() int {
	panels := b.Panels()
	for _, p := range panels {
		p.Destroy()
	}
	return len(panels)
}

// Panels returns the open panels, oldest first.
func (b *Board) Panels() []*Panel {
	b.mu.Lock()
	out := make([]*Panel, 0, len(b.panels))
	for _, p := range b.panels {
		out = append(out, p)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Newest returns the most recently opened panel that is still open.
func (b *Board) Newest() (*Panel, bool) {
	panels := b.Panels()
	if len(panels) == 0 {
		return nil, false
	}
	return panels[len(panels)-1], true
}

// Len returns the number of open panels.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.panels)
}
