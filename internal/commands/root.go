package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the command tree; open creates the App for commands
// that need storage
func newRootCmd(open appOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fencer",
		Short: "Focus sessions that fence off your distractions",
		Long: `fencer is a focus timer for the terminal. Start a session, keep the apps
that distract you closed, and build a daily streak.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/fencer/config.toml)")
	rootCmd.PersistentFlags().String("db", "", "Database file (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug output to stderr")

	rootCmd.AddCommand(newStartCmd(open))
	rootCmd.AddCommand(newStatsCmd(open))
	rootCmd.AddCommand(newHistoryCmd(open))
	rootCmd.AddCommand(newSettingsCmd(open))
	rootCmd.AddCommand(newAppsCmd(open))
	rootCmd.AddCommand(newResetCmd(open))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.SetHelpCommand(newHelpCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fencer %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return newRootCmd(openApp).ExecuteContext(ctx)
}
