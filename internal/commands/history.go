package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/balkashynov/fencer/internal/export"
	"github.com/balkashynov/fencer/internal/tui"
)

func newHistoryCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"log"},
		Short:   "Show past sessions",
		Long: `Show past focus sessions, newest first, or export them.

Examples:
  fencer history                         # Last 20 sessions
  fencer history -n 0 -f json            # Everything as JSON
  fencer history -f xlsx -o focus.xlsx   # Spreadsheet export`,
		Args: cobra.NoArgs,
		RunE: withApp(open, runHistory),
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of sessions to show (0 for all)")
	cmd.Flags().StringP("format", "f", "table", "Output format: table|json|yaml|csv|xlsx")
	cmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string, app *App) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	formatName, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	if limit < 0 {
		return fmt.Errorf("invalid limit %d", limit)
	}

	sessions := app.Store.LoadSessions(ctx)
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[len(sessions)-limit:]
	}

	if formatName == "table" {
		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet. Use 'fencer start' to begin your first one.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderHistory(sessions, app.Store.LoadSettings(ctx).Theme))
		return nil
	}

	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	if outPath == "" {
		if format.Binary() {
			return fmt.Errorf("%s output needs a file, pass --out", format)
		}
		return export.Write(cmd.OutOrStdout(), format, sessions)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	if err := export.Write(f, format, sessions); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	app.Log.Info("exported history", "path", outPath, "format", format, "sessions", len(sessions))
	fmt.Fprintf(cmd.OutOrStdout(), "📄 Exported %d sessions to %s\n", len(sessions), outPath)
	return nil
}
