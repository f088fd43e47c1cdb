package builtin

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/fakeyudi/freeterm/internal/session"
)

// Opener launches the system application for path.
type Opener func(path string) error

// defaultOpener starts the platform's "open with default app" command and
// does not wait for it.
func defaultOpener(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

func (c *commands) dir(args []string) error {
	entries, err := os.ReadDir(c.s.Cwd())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		c.s.Println("(empty)")
		return nil
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		tag := "     "
		if e.IsDir() {
			tag = "<DIR>"
		}
		lines = append(lines, tag+"  "+e.Name())
	}
	c.s.Println(strings.Join(lines, "\n"))
	return nil
}

func (c *commands) cd(args []string) error {
	if len(args) == 0 {
		c.s.Println(c.s.Cwd())
		return nil
	}
	target := args[0]
	switch target {
	case "-", "--", "---":
		dir, err := c.s.Back(len(target))
		if errors.Is(err, session.ErrNoDirHistory) {
			c.s.Println("[info] directory history is empty.")
			return nil
		}
		if err != nil {
			return err
		}
		c.s.Println(dir)
		return nil
	}
	dir, err := c.s.Chdir(target)
	if err != nil {
		return err
	}
	c.s.Println(dir)
	return nil
}

func (c *commands) cds(args []string) error {
	if len(args) == 0 {
		c.s.Println("[usage] cds <dir>")
		return nil
	}
	path := c.s.Resolve(args[0])
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	c.s.Println("Directory created: " + path)
	return nil
}

func (c *commands) cfile(args []string) error {
	if len(args) > 0 && args[0] == "-" {
		if c.lastFile == "" {
			return errors.New("no target file (use 'cfile <name> ...' first)")
		}
		if err := appendLine(c.lastFile, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		c.s.Println("Appended to " + filepath.Base(c.lastFile) + ".")
		return nil
	}
	if len(args) == 0 {
		c.s.Println("[usage] cfile <name> [- <text>]")
		return nil
	}

	path := c.s.Resolve(args[0])
	var text string
	if len(args) >= 3 && args[1] == "-" {
		text = strings.Join(args[2:], " ")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	action := "Created"
	if text != "" {
		if err := appendLine(path, text); err != nil {
			return err
		}
		action = "Created/edited"
	}
	c.lastFile = path
	c.s.Printf("%s: %s", action, path)
	return nil
}

// appendLine appends text to path, adding a trailing newline if text lacks one.
func appendLine(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *commands) play(args []string) error {
	if len(args) == 0 {
		c.s.Println("[usage] play <name>")
		return nil
	}
	needle := strings.ToLower(args[0])
	entries, err := os.ReadDir(c.s.Cwd())
	if err != nil {
		return err
	}
	var matches []string
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name()), needle) {
			matches = append(matches, e.Name())
		}
	}

	switch len(matches) {
	case 0:
		c.s.Println("[info] no match.")
		return nil
	case 1:
		return c.openEntry(matches[0])
	}

	lines := []string{"Several matches:"}
	for i, name := range matches {
		lines = append(lines, fmt.Sprintf("  %2d: %s", i+1, name))
	}
	lines = append(lines, "Enter a number and press Enter.")
	c.s.Println(strings.Join(lines, "\n"))

	c.s.Arm(func(line string) error {
		k, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || k < 1 || k > len(matches) {
			c.s.Println("[info] selection cancelled.")
			return nil
		}
		return c.openEntry(matches[k-1])
	})
	return nil
}

func (c *commands) openEntry(name string) error {
	if err := c.open(filepath.Join(c.s.Cwd(), name)); err != nil {
		return err
	}
	c.s.Println("[opened] " + name)
	return nil
}
