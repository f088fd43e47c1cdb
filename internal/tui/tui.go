// Package tui provides the Bubble Tea console for a freeterm session.
//
// The model never touches session state directly. Submitted lines and key
// actions are posted to the session's loop; history recall runs there with
// Loop.Call and comes back as a message. Console output and panels are read
// from thread-safe snapshots on every refresh tick.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/freeterm/internal/config"
	"github.com/fakeyudi/freeterm/internal/loop"
	"github.com/fakeyudi/freeterm/internal/output"
	"github.com/fakeyudi/freeterm/internal/session"
)

const refreshInterval = 100 * time.Millisecond

// ── Styles ────────────

type theme struct {
	title     lipgloss.Style
	console   lipgloss.Style
	panel     lipgloss.Style
	panelHot  lipgloss.Style
	panelHead lipgloss.Style
	prompt    lipgloss.Style
	status    lipgloss.Style
}

func newTheme(cfg config.Config) theme {
	fg := lipgloss.Color(cfg.Foreground)
	bg := lipgloss.Color(cfg.Background)
	return theme{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(bg).
			Background(fg).
			Padding(0, 2),
		console: lipgloss.NewStyle().
			Foreground(fg).
			Background(bg),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(fg).
			Foreground(fg).
			Padding(0, 1),
		// Alarm blink.
		panelHot: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ffffff")).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true).
			Padding(0, 1),
		panelHead: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		prompt: lipgloss.NewStyle().
			Foreground(fg).
			Bold(true),
		status: lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1),
	}
}

// ── Messages ─────────────────

type tickMsg time.Time

type recallMsg struct {
	line string
	ok   bool
}

// ThemeMsg re-applies colors and prompt from a reloaded configuration.
type ThemeMsg config.Config

// ── Model ────────────────────

// Model is the root Bubble Tea model for the console.
type Model struct {
	lp     *loop.Loop
	sess   *session.Session
	out    *output.Buffer
	exit   <-chan struct{}
	theme  theme
	input  textinput.Model
	vp     viewport.Model
	width  int
	height int
	ready  bool

	seen   uint64
	panels []panelView
}

type panelView struct {
	id    int
	title string
	text  string
	hot   bool
}

// New creates the console model. out must be the sink the session writes to;
// exit is closed when the session asks to quit.
func New(lp *loop.Loop, sess *session.Session, out *output.Buffer, exit <-chan struct{}, cfg config.Config) Model {
	ti := textinput.New()
	ti.Prompt = cfg.Prompt
	ti.Focus()
	m := Model{
		lp:    lp,
		sess:  sess,
		out:   out,
		exit:  exit,
		input: ti,
	}
	m.applyTheme(cfg)
	return m
}

func (m *Model) applyTheme(cfg config.Config) {
	m.theme = newTheme(cfg)
	m.input.Prompt = cfg.Prompt
	m.input.PromptStyle = m.theme.prompt
	m.input.TextStyle = m.theme.console
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.lp.Post(m.sess.RequestExit)
			return m, tea.Quit
		case "enter":
			line := m.input.Value()
			m.input.Reset()
			m.lp.Post(func() { m.sess.Submit(line) })
			return m, nil
		case "up":
			return m, m.recall(true)
		case "down":
			return m, m.recall(false)
		case "ctrl+l":
			m.lp.Post(m.sess.Clear)
			return m, nil
		case "ctrl+w":
			m.lp.Post(func() {
				if p, ok := m.sess.Board.Newest(); ok {
					p.Destroy()
				}
			})
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case recallMsg:
		if msg.ok {
			m.input.SetValue(msg.line)
			m.input.CursorEnd()
		}
		return m, nil

	case tickMsg:
		select {
		case <-m.exit:
			return m, tea.Quit
		default:
		}
		m.refresh()
		return m, tick()

	case ThemeMsg:
		m.applyTheme(config.Config(msg))
		m.seen = 0
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - lipgloss.Width(m.input.Prompt) - 1
		if !m.ready {
			m.vp = viewport.New(m.width, 1)
			m.ready = true
		}
		m.seen = 0
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// recall browses the history ledger on the loop goroutine.
func (m Model) recall(back bool) tea.Cmd {
	lp, ledger := m.lp, m.sess.History
	return func() tea.Msg {
		var r recallMsg
		err := lp.Call(func() {
			if back {
				r.line, r.ok = ledger.Previous()
			} else {
				r.line, r.ok = ledger.Next()
			}
		})
		if err != nil {
			return nil
		}
		return r
	}
}

// refresh pulls the latest console lines and panel states.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	board := m.sess.Board.Panels()
	m.panels = make([]panelView, 0, len(board))
	for _, p := range board {
		m.panels = append(m.panels, panelView{id: p.ID(), title: p.Title(), text: p.Text(), hot: p.Highlighted()})
	}

	m.vp.Width = m.width
	m.vp.Height = max(1, m.height-m.chromeHeight())

	if v := m.out.Version(); v != m.seen {
		m.seen = v
		atBottom := m.vp.AtBottom()
		m.vp.SetContent(m.theme.console.Render(strings.Join(m.out.Lines(), "\n")))
		if atBottom {
			m.vp.GotoBottom()
		}
	}
}

// chromeHeight is everything around the console viewport.
func (m *Model) chromeHeight() int {
	// title(1) + prompt(1) + status(1)
	h := 3
	if len(m.panels) > 0 {
		h += lipgloss.Height(m.renderPanels())
	}
	return h
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := m.theme.title.Width(m.width).Render(fmt.Sprintf("freeterm  %s", m.sess.ID[:8]))

	rows := []string{title, m.vp.View()}
	if len(m.panels) > 0 {
		rows = append(rows, m.renderPanels())
	}
	rows = append(rows, m.input.View())

	hint := "enter run  ↑/↓ history  pgup/pgdn scroll  ctrl+w close panel  ctrl+l clear  ctrl+c quit"
	rows = append(rows, m.theme.status.Width(m.width).Render(hint))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderPanels() string {
	boxes := make([]string, 0, len(m.panels))
	for _, p := range m.panels {
		style := m.theme.panel
		if p.hot {
			style = m.theme.panelHot
		}
		head := m.theme.panelHead.Render(fmt.Sprintf("%d %s", p.id, p.title))
		boxes = append(boxes, style.Render(head+"\n"+p.text))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// Panels returns the ids of the panels shown by the last refresh.
func (m Model) Panels() []int {
	ids := make([]int, len(m.panels))
	for i, p := range m.panels {
		ids[i] = p.id
	}
	return ids
}

// NewProgram wraps m in a full-screen program. Callers may Send ThemeMsg to
// it while it runs.
func NewProgram(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}
