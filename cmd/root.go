package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/freeterm/internal/config"
	"github.com/fakeyudi/freeterm/internal/logging"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// projectCfg is the project-level file as loaded, kept so that a reloaded
// global file can be merged under it again.
var projectCfg *config.Config

// logger is built from cfg in PersistentPreRunE.
var logger = zap.NewNop()

var plainMode bool

var rootCmd = &cobra.Command{
	Use:   "freeterm",
	Short: "An interactive console with countdowns, stopwatches and file commands",
	Long: `freeterm opens an interactive console. Type 'help' inside it for the list
of commands. On a terminal it runs full screen; with --plain, or when stdin
is not a terminal, it reads plain lines instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		projectCfg = project
		cfg = config.Merge(global, project)

		l, err := logging.New(cfg)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&plainMode, "plain", false, "read plain lines instead of running full screen")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}
