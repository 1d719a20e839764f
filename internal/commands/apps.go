package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/parser"
)

func newAppsCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Manage blocked apps",
		Long: `Manage the apps a focus session blocks. Names are process names, matched case-insensitively.

Examples:
  fencer apps add slack discord
  fencer apps rm discord
  fencer apps running          # What could you block?`,
	}

	lsCmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List blocked apps",
		Args:    cobra.NoArgs,
		RunE: withApp(open, func(cmd *cobra.Command, args []string, app *App) error {
			apps := app.Store.LoadSettings(cmd.Context()).BlockedApps
			if len(apps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No blocked apps. Use 'fencer apps add <app>' to add some.")
				return nil
			}
			for _, a := range apps {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		}),
	}

	addCmd := &cobra.Command{
		Use:   "add <app...>",
		Short: "Block apps",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(open, func(cmd *cobra.Command, args []string, app *App) error {
			return updateApps(cmd, app, args, func(current, given []string) []string {
				return append(current, given...)
			})
		}),
	}

	rmCmd := &cobra.Command{
		Use:     "rm <app...>",
		Aliases: []string{"remove"},
		Short:   "Unblock apps",
		Args:    cobra.MinimumNArgs(1),
		RunE: withApp(open, func(cmd *cobra.Command, args []string, app *App) error {
			return updateApps(cmd, app, args, func(current, given []string) []string {
				return slices.DeleteFunc(current, func(a string) bool {
					return slices.Contains(given, a)
				})
			})
		}),
	}

	runningCmd := &cobra.Command{
		Use:   "running",
		Short: "List running apps",
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(cmd *cobra.Command, args []string, app *App) error {
			ctx := cmd.Context()
			running, err := app.Detector.RunningApps(ctx)
			if err != nil {
				return err
			}
			blocked := app.Store.LoadSettings(ctx).BlockedApps
			for _, name := range running {
				marker := "  "
				if slices.Contains(blocked, name) {
					marker = "🚫"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		}),
	}

	cmd.AddCommand(lsCmd, addCmd, rmCmd, runningCmd)
	return cmd
}

func updateApps(cmd *cobra.Command, app *App, args []string, change func(current, given []string) []string) error {
	ctx := cmd.Context()
	given := parser.ParseApps(args...)
	current := slices.Clone(app.Store.LoadSettings(ctx).BlockedApps)

	updated, err := app.Store.UpdateSettings(ctx, models.SettingsPatch{
		BlockedApps: models.NormalizeApps(change(current, given)),
	})
	if err != nil {
		return err
	}

	if len(updated.BlockedApps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "🛡️  No apps blocked")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🛡️  Blocking: %s\n", strings.Join(updated.BlockedApps, ", "))
	return nil
}
