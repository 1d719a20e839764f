package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/stats"
	"github.com/balkashynov/fencer/internal/tui"
)

func newStatsCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show focus statistics",
		Long:  "Show session totals, completion rate, streaks and session length insights",
		Args:  cobra.NoArgs,
		RunE:  withApp(open, runStats),
	}
	cmd.Flags().Bool("json", false, "JSON output")
	return cmd
}

type statsReport struct {
	Stats   models.UserStats `json:"stats"`
	Summary stats.Summary    `json:"summary"`
}

func runStats(cmd *cobra.Command, args []string, app *App) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	st := stats.AsOf(app.Store.LoadStats(ctx), models.DateOf(time.Now()))
	summary := stats.Summarize(st, app.Store.LoadSessions(ctx))

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statsReport{Stats: st, Summary: summary})
	}

	if st.TotalSessions == 0 {
		fmt.Fprintln(out, "No sessions yet. Use 'fencer start' to begin your first one.")
		return nil
	}

	theme := app.Store.LoadSettings(ctx).Theme
	fmt.Fprintln(out, tui.RenderStats(st, summary, theme))
	return nil
}
