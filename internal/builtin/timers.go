package builtin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fakeyudi/freeterm/internal/display"
	"github.com/fakeyudi/freeterm/internal/timer"
)

const clockRefresh = 500 * time.Millisecond

func (c *commands) time(args []string) error {
	if len(args) > 0 && strings.EqualFold(args[0], "x") {
		p := c.s.Board.Open(display.KindClock, "clock")
		c.runClock(p)
		c.s.Printf("[clock] panel %d opened.", p.ID())
		return nil
	}
	c.s.Println(c.s.Now().Format("15:04:05"))
	return nil
}

// runClock redraws p every half second until it is closed.
func (c *commands) runClock(p *display.Panel) {
	if !p.Alive() {
		return
	}
	p.SetText(c.s.Now().Format("15:04:05"))
	c.s.Scheduler().After(clockRefresh, func() { c.runClock(p) })
}

func (c *commands) date(args []string) error {
	c.s.Println(c.s.Now().Format("02.01.2006"))
	return nil
}

func (c *commands) cal(args []string) error {
	c.s.Println(monthCalendar(c.s.Now()))
	return nil
}

// monthCalendar renders the month containing t, weeks starting on Monday.
func monthCalendar(t time.Time) string {
	const width = 20
	title := fmt.Sprintf("%s %d", t.Month(), t.Year())
	lines := []string{strings.Repeat(" ", (width-len(title))/2) + title, "Mo Tu We Th Fr Sa Su"}

	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	days := first.AddDate(0, 1, -1).Day()
	offset := (int(first.Weekday()) + 6) % 7

	cells := make([]string, 0, 42)
	for i := 0; i < offset; i++ {
		cells = append(cells, "  ")
	}
	for d := 1; d <= days; d++ {
		cells = append(cells, fmt.Sprintf("%2d", d))
	}
	for i := 0; i < len(cells); i += 7 {
		end := min(i+7, len(cells))
		lines = append(lines, strings.TrimRight(strings.Join(cells[i:end], " "), " "))
	}
	return strings.Join(lines, "\n")
}

func (c *commands) timer(args []string) error {
	if len(args) == 0 {
		p := c.s.Board.Open(display.KindStopwatch, "stopwatch")
		sw := c.s.Timers.StartStopwatch(p)
		p.SetTitle(fmt.Sprintf("stopwatch #%d", sw.ID()))
		c.s.Printf("[timer] stopwatch #%d ready; 'timer %d' starts or pauses it.", sw.ID(), sw.ID())
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		c.s.Println("[usage] timer [n]")
		return nil
	}
	sw, err := c.s.Timers.Stopwatch(id)
	if err != nil {
		return err
	}
	state := "paused"
	if sw.Toggle() {
		state = "running"
	}
	c.s.Printf("[timer] stopwatch #%d %s at %s", id, state, timer.FormatElapsed(sw.Elapsed()))
	return nil
}

func (c *commands) minuteur(args []string) error {
	if len(args) == 0 {
		c.s.Println("[usage] minuteur <hh:mm[:ss]>")
		return nil
	}
	total, err := timer.ParseClock(args[0])
	if err != nil {
		c.s.Println("[error] invalid format (hh:mm[:ss])")
		return nil
	}
	p := c.s.Board.Open(display.KindCountdown, "countdown")
	cd, err := c.s.Timers.Start(total, p)
	if err != nil {
		p.Destroy()
		return err
	}
	p.SetTitle(fmt.Sprintf("countdown #%d", cd.ID()))
	c.s.Printf("[countdown] #%d started: %s", cd.ID(), timer.FormatClock(cd.Total()))
	return nil
}

func (c *commands) stop(args []string) error {
	if len(args) > 0 {
		switch word := strings.ToLower(args[0]); {
		case word == "all":
			return c.stopAll(nil)
		case strings.HasPrefix(word, "m"):
			return c.stopCountdowns(args[1:])
		}
	}
	c.s.Println("Usage: stop m [n]  (stop countdowns) | stop all")
	return nil
}

func (c *commands) stopCountdowns(args []string) error {
	if len(args) == 0 {
		c.s.Printf("[countdown] stopped: %d", c.s.StopCountdowns())
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		c.s.Println("Usage: stop m [n]")
		return nil
	}
	if err := c.s.Timers.Stop(id); err != nil {
		if errors.Is(err, timer.ErrNoSuchCountdown) {
			c.s.Println("[countdown] stopped: 0")
			return nil
		}
		return err
	}
	c.s.Println("[countdown] stopped: 1")
	return nil
}

func (c *commands) stopAll(args []string) error {
	td := c.s.StopAll()
	c.s.Printf("[stop all] countdowns stopped: %d, panels closed: %d.", td.Countdowns, td.Resources)
	return nil
}
