// Package builtin registers the console's commands on a session.
package builtin

import (
	"fmt"
	"strings"

	"github.com/fakeyudi/freeterm/internal/command"
	"github.com/fakeyudi/freeterm/internal/config"
	"github.com/fakeyudi/freeterm/internal/session"
)

// Options configures the built-in commands.
type Options struct {
	// Opener hands a path to the desktop's default application. If nil, the
	// platform opener subprocess is used.
	Opener Opener
	// UpdateConfig persists color changes. If nil, the global config file is
	// rewritten; a running console reloads it.
	UpdateConfig ConfigUpdater
}

type commands struct {
	s            *session.Session
	open         Opener
	updateConfig ConfigUpdater
	lastFile     string
}

// Register adds every built-in command to s in their listing order.
func Register(s *session.Session, opts Options) error {
	c := &commands{s: s, open: opts.Opener, updateConfig: opts.UpdateConfig}
	if c.open == nil {
		c.open = defaultOpener
	}
	if c.updateConfig == nil {
		c.updateConfig = config.UpdateGlobal
	}
	for _, spec := range c.specs() {
		if err := s.Registry.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

// Banner prints the greeting shown when a console opens.
func Banner(s *session.Session) {
	s.Println("Welcome to freeterm  |  type 'help' for help")
	s.Println("Current directory: " + s.Cwd())
	s.Println("")
}

func (c *commands) specs() []command.Spec {
	return []command.Spec{
		{Name: "help", Aliases: []string{"?"}, Description: "Show this list.", Handler: c.help},
		{Name: "cln", Aliases: []string{"cls", "clear"}, Description: "Clear the console.", Handler: c.clear},

		{Name: "dir", Aliases: []string{"ls"}, Description: "List the current directory.", Handler: c.dir},
		{Name: "cd", Usage: "cd [path | - | -- | ---]", Description: "Show or change the current directory; dashes go back that many steps.", Handler: c.cd},
		{Name: "cds", Aliases: []string{"mkdir"}, Usage: "cds <dir>", Description: "Create a directory, parents included.", Handler: c.cds},
		{Name: "cfile", Usage: "cfile <name> [- <text>] | cfile - <text>", Description: "Create a file, optionally appending text; 'cfile - text' appends to the last one.", Handler: c.cfile},
		{Name: "play", Aliases: []string{"open"}, Usage: "play <name>", Description: "Open a matching file or directory with the system application.", Handler: c.play},

		{Name: "msg", Aliases: []string{"echo"}, Description: "Print a message as is.", Handler: c.msg},
		{Name: "color", Usage: "color <text> [background] | color <preset>", Description: "Change and save the console's text and background colors.", Handler: c.color},

		{Name: "time", Usage: "time [x]", Description: "Print HH:MM:SS; 'time x' opens a live clock panel.", Handler: c.time},
		{Name: "date", Description: "Print today's date (dd.mm.yyyy).", Handler: c.date},
		{Name: "cal", Description: "Print this month's calendar.", Handler: c.cal},
		{Name: "timer", Aliases: []string{"chrono"}, Usage: "timer [n]", Description: "Open a stopwatch panel; 'timer n' starts or pauses stopwatch n.", Handler: c.timer},
		{Name: "minuteur", Aliases: []string{"countdown"}, Usage: "minuteur <hh:mm[:ss]>", Description: "Start a countdown that beeps at zero until stopped.", Handler: c.minuteur},
		{Name: "stop", Usage: "stop m [n] | stop all", Description: "Stop every countdown, or countdown n; 'stop all' also closes every panel.", Handler: c.stop},
		{Name: "stopall", Description: "Stop every countdown and close every panel.", Handler: c.stopAll},

		{Name: "windows", Aliases: []string{"ps"}, Description: "List open panels.", Handler: c.windows},
		{Name: "close", Usage: "close <n>", Description: "Close panel n.", Handler: c.closePanel},
		{Name: "exitapp", Description: "Close every panel; the console stays open.", Handler: c.exitApp},
		{Name: "exit", Aliases: []string{"quit"}, Description: "Quit the console.", Handler: c.exit},
		{Name: "shutup", Description: "Print 'ok', then after one second stop everything and quit.", Handler: c.shutup},
	}
}

const helpColumn = 34

func (c *commands) help(args []string) error {
	lines := []string{"Available commands:"}
	for _, spec := range c.s.Registry.Sorted() {
		left := spec.Name
		if len(spec.Aliases) > 0 {
			left += " (alias: " + strings.Join(spec.Aliases, ", ") + ")"
		}
		lines = append(lines, fmt.Sprintf("  %-*s %s", helpColumn, left, spec.Description))
		if spec.Usage != "" {
			lines = append(lines, fmt.Sprintf("  %-*s usage: %s", helpColumn, "", spec.Usage))
		}
	}
	c.s.Println(strings.Join(lines, "\n"))
	return nil
}

func (c *commands) clear(args []string) error {
	c.s.Clear()
	return nil
}

func (c *commands) msg(args []string) error {
	c.s.Println(strings.Join(args, " "))
	return nil
}
