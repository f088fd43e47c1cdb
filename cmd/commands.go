package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/freeterm/internal/builtin"
	"github.com/fakeyudi/freeterm/internal/loop"
	"github.com/fakeyudi/freeterm/internal/output"
	"github.com/fakeyudi/freeterm/internal/session"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the console's commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := session.New(session.Options{
			Out:       &output.Buffer{},
			Scheduler: loop.NewManual(),
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		if err := builtin.Register(sess, builtin.Options{}); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, spec := range sess.Registry.All() {
			name := spec.Name
			if len(spec.Aliases) > 0 {
				name += " (" + strings.Join(spec.Aliases, ", ") + ")"
			}
			fmt.Fprintf(out, "  %-26s %s\n", name, spec.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
