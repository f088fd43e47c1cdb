package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/freeterm/internal/builtin"
	"github.com/fakeyudi/freeterm/internal/config"
	"github.com/fakeyudi/freeterm/internal/loop"
	"github.com/fakeyudi/freeterm/internal/output"
	"github.com/fakeyudi/freeterm/internal/repl"
	"github.com/fakeyudi/freeterm/internal/session"
	"github.com/fakeyudi/freeterm/internal/timer"
	"github.com/fakeyudi/freeterm/internal/tui"
)

// newPrompter is swapped out in tests.
var newPrompter = repl.NewPrompter

func runConsole(cmd *cobra.Command) error {
	fullScreen := !plainMode && term.IsTerminal(os.Stdin.Fd())
	stdout := cmd.OutOrStdout()

	var (
		sink   output.Sink
		screen *output.Buffer
	)
	if fullScreen {
		screen = &output.Buffer{}
		sink = screen
	} else {
		sink = repl.NewWriter(stdout)
	}

	lp := loop.New()
	exit := make(chan struct{})
	var once sync.Once
	sess, err := session.New(session.Options{
		Out:       sink,
		Scheduler: lp,
		Logger:    logger,
		Beeper:    bell(os.Stderr),
		Cadence:   cadence(cfg.Alarm),
		OnExit:    func() { once.Do(func() { close(exit) }) },
	})
	if err != nil {
		return err
	}
	if err := builtin.Register(sess, builtin.Options{}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	loopDone := make(chan error, 1)
	go func() { loopDone <- lp.Run(ctx) }()
	if err := lp.Call(func() { builtin.Banner(sess) }); err != nil {
		return err
	}

	var runErr error
	if fullScreen {
		runErr = runFullScreen(ctx, lp, sess, screen, exit)
	} else {
		runErr = repl.Run(lp, sess, newPrompter(), cfg.Prompt, exit)
	}

	if err := lp.Call(func() { sess.Close() }); err != nil {
		logger.Warn("session teardown skipped", zap.Error(err))
	}
	lp.Stop()
	if err := <-loopDone; err != nil && err != context.Canceled {
		logger.Warn("loop ended", zap.Error(err))
	}
	return runErr
}

func runFullScreen(ctx context.Context, lp *loop.Loop, sess *session.Session, screen *output.Buffer, exit <-chan struct{}) error {
	p := tui.NewProgram(tui.New(lp, sess, screen, exit, cfg))

	if path, err := config.GlobalPath(); err == nil {
		go func() {
			err := config.Watch(ctx, path, func(global *config.Config, err error) {
				if err != nil {
					logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("config reloaded", zap.String("path", path))
				p.Send(tui.ThemeMsg(config.Merge(global, projectCfg)))
			})
			if err != nil {
				logger.Debug("config watch unavailable", zap.String("path", path), zap.Error(err))
			}
		}()
	}

	_, err := p.Run()
	return err
}

// bell rings the terminal bell on w.
func bell(w io.Writer) timer.Beeper {
	return timer.BeeperFunc(func() { fmt.Fprint(w, "\a") })
}

func cadence(a config.AlarmConfig) timer.Cadence {
	c := timer.DefaultCadence()
	if a.BeepGapMS > 0 {
		c.BeepGap = a.BeepGap()
	}
	if a.BlinkHalfMS > 0 {
		c.BlinkHalf = a.BlinkHalf()
	}
	if a.PauseMS > 0 {
		c.Pause = a.Pause()
	}
	return c
}
