package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/fencer/internal/tui"
)

func newResetCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear session history",
		Long: `Clear the session history. With --all, stats and settings are reset too.

Examples:
  fencer reset          # Asks before clearing history
  fencer reset --all -y # Start over without asking`,
		Args: cobra.NoArgs,
		RunE: withApp(open, runReset),
	}
	cmd.Flags().Bool("all", false, "Also reset stats and settings")
	cmd.Flags().BoolP("yes", "y", false, "Don't ask for confirmation")
	return cmd
}

func runReset(cmd *cobra.Command, args []string, app *App) error {
	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")
	yes, _ := cmd.Flags().GetBool("yes")

	what := "your session history"
	if all {
		what = "all sessions, stats and settings"
	}

	if !yes {
		ok, err := tui.Confirm(app.Store.LoadSettings(ctx).Theme, fmt.Sprintf("Delete %s?", what), "This cannot be undone.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "❌ Reset cancelled.")
			return nil
		}
	}

	var err error
	if all {
		err = app.Store.ClearAll(ctx)
	} else {
		err = app.Store.ClearSessions(ctx)
	}
	if err != nil {
		return err
	}

	app.Log.Info("reset", "all", all)
	fmt.Fprintf(cmd.OutOrStdout(), "🧹 Deleted %s.\n", what)
	return nil
}
