package builtin

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const shutupDelay = time.Second

func (c *commands) windows(args []string) error {
	panels := c.s.Board.Panels()
	if len(panels) == 0 {
		c.s.Println("(no open panels)")
		return nil
	}
	lines := make([]string, 0, len(panels))
	for _, p := range panels {
		line := fmt.Sprintf("  %2d: %-16s %s", p.ID(), p.Title(), p.Text())
		if p.Highlighted() {
			line += "  *"
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	c.s.Println(strings.Join(lines, "\n"))
	return nil
}

func (c *commands) closePanel(args []string) error {
	if len(args) == 0 {
		c.s.Println("[usage] close <n>")
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		c.s.Println("[usage] close <n>")
		return nil
	}
	if !c.s.Board.Close(id) {
		return fmt.Errorf("no open panel %d", id)
	}
	c.s.Printf("[close] panel %d closed.", id)
	return nil
}

func (c *commands) exitApp(args []string) error {
	n := c.s.Board.CloseAll()
	c.s.Printf("[exitapp] %d panels closed.", n)
	return nil
}

func (c *commands) exit(args []string) error {
	c.s.RequestExit()
	return nil
}

func (c *commands) shutup(args []string) error {
	c.s.Println("ok")
	c.s.Scheduler().After(shutupDelay, func() {
		c.stopAll(nil)
		c.s.RequestExit()
	})
	return nil
}
