// Package cli implements the parley command line interface.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedran77/parley/internal/config"
	"github.com/vedran77/parley/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "parley",
		Short:         "Chat client for groups and direct messages",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				c.LogLevel = logLevel
			}
			logging.Init(c.LogLevel, c.LogFormat, os.Stderr)
			cfg = c
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/parley/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newChatsCmd(),
		newWatchCmd(),
		newHistoryCmd(),
		newSendCmd(),
		newEditCmd(),
		newRmCmd(),
		newNotifyCmd(),
	)
	return root
}

// ExecuteContext runs the CLI; ctx cancellation (interrupt) unblocks
// long-running commands like watch.
func ExecuteContext(ctx context.Context, version string) error {
	return newRootCmd(version).ExecuteContext(ctx)
}
