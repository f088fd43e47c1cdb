package builtin

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fakeyudi/freeterm/internal/config"
)

// ConfigUpdater changes and persists the user's configuration.
type ConfigUpdater func(fn func(*config.Config)) (*config.Config, error)

type colorPreset struct {
	name, fg, bg string
}

var colorPresets = []colorPreset{
	{"green", "#00ff00", "#000000"},
	{"amber", "#ffbf00", "#000000"},
	{"soft", "#66ff66", "#000000"},
	{"grey", "#00ff00", "#111111"},
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (c *commands) color(args []string) error {
	if len(args) == 0 {
		c.s.Println("Usage: color <text> [background] | color <preset>")
		c.s.Println("Colors are #rrggbb. Presets:")
		for _, p := range colorPresets {
			c.s.Printf("  %-6s %s on %s", p.name, p.fg, p.bg)
		}
		return nil
	}

	fg, bg := args[0], ""
	if len(args) > 1 {
		bg = args[1]
	}
	if len(args) == 1 {
		for _, p := range colorPresets {
			if strings.EqualFold(p.name, args[0]) {
				fg, bg = p.fg, p.bg
			}
		}
	}
	if !hexColor.MatchString(fg) || (bg != "" && !hexColor.MatchString(bg)) {
		c.s.Println("[error] colors are #rrggbb or a preset name (see 'color')")
		return nil
	}

	saved, err := c.updateConfig(func(cfg *config.Config) {
		cfg.Foreground = fg
		if bg != "" {
			cfg.Background = bg
		}
	})
	if err != nil {
		return err
	}
	shown := config.Merge(saved, nil)
	c.s.Logger().Info("colors saved",
		zap.String("foreground", shown.Foreground),
		zap.String("background", shown.Background))
	c.s.Printf("[color] text %s on %s.", shown.Foreground, shown.Background)
	return nil
}
