package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/parser"
	"github.com/balkashynov/fencer/internal/tui"
)

func newSettingsCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(cmd *cobra.Command, args []string, app *App) error {
			printSettings(cmd.OutOrStdout(), app.Store.LoadSettings(cmd.Context()))
			return nil
		}),
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Long: `Change one or more settings. Only the flags you pass are changed.

Examples:
  fencer settings set --theme light
  fencer settings set --duration 50m --sound=false`,
		Args: cobra.NoArgs,
		RunE: withApp(open, runSettingsSet),
	}
	setCmd.Flags().String("theme", "", "Theme: light|dark|neon")
	setCmd.Flags().String("duration", "", "Default session length, e.g. 25 or 1h")
	setCmd.Flags().Bool("sound", true, "Play a sound when a session ends")
	setCmd.Flags().Bool("vibration", true, "Vibrate when a session ends")
	setCmd.Flags().Bool("notifications", true, "Show notifications")
	setCmd.Flags().Bool("premium", false, "Premium features")
	setCmd.Flags().Bool("unlock-neon", false, "Unlock the neon theme")

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit settings interactively",
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(cmd *cobra.Command, args []string, app *App) error {
			ctx := cmd.Context()
			patch, err := tui.RunSettingsForm(app.Store.LoadSettings(ctx))
			if err != nil {
				return err
			}
			return applySettings(cmd, app, patch)
		}),
	}

	cmd.AddCommand(setCmd, editCmd)
	return cmd
}

func runSettingsSet(cmd *cobra.Command, args []string, app *App) error {
	patch, err := settingsPatchFromFlags(cmd)
	if err != nil {
		return err
	}
	return applySettings(cmd, app, patch)
}

// settingsPatchFromFlags builds a patch holding only the flags given
func settingsPatchFromFlags(cmd *cobra.Command) (models.SettingsPatch, error) {
	var patch models.SettingsPatch
	flags := cmd.Flags()

	if flags.Changed("theme") {
		name, _ := flags.GetString("theme")
		theme, err := models.ParseTheme(name)
		if err != nil {
			return patch, err
		}
		patch.Theme = &theme
	}
	if flags.Changed("duration") {
		raw, _ := flags.GetString("duration")
		minutes, err := parser.ParseMinutes(raw)
		if err != nil {
			return patch, err
		}
		patch.DefaultDuration = &minutes
	}

	boolFlags := map[string]**bool{
		"sound":         &patch.SoundEnabled,
		"vibration":     &patch.VibrationEnabled,
		"notifications": &patch.NotificationsEnabled,
		"premium":       &patch.IsPremium,
		"unlock-neon":   &patch.HasUnlockedNeon,
	}
	for name, field := range boolFlags {
		if flags.Changed(name) {
			v, _ := flags.GetBool(name)
			*field = &v
		}
	}

	return patch, nil
}

func applySettings(cmd *cobra.Command, app *App, patch models.SettingsPatch) error {
	out := cmd.OutOrStdout()
	if patch.IsEmpty() {
		fmt.Fprintln(out, "Nothing to change.")
		return nil
	}

	updated, err := app.Store.UpdateSettings(cmd.Context(), patch)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "✅ Settings saved")
	printSettings(out, updated)
	return nil
}

func printSettings(out io.Writer, s models.AppSettings) {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	theme := string(s.Theme)
	if !s.HasUnlockedNeon {
		theme += " (neon locked)"
	}
	apps := "none"
	if len(s.BlockedApps) > 0 {
		apps = strings.Join(s.BlockedApps, ", ")
	}

	fmt.Fprintf(out, "%-16s %s\n", "Theme", theme)
	fmt.Fprintf(out, "%-16s %s\n", "Default length", parser.FormatMinutes(s.DefaultDuration))
	fmt.Fprintf(out, "%-16s %s\n", "Sound", onOff(s.SoundEnabled))
	fmt.Fprintf(out, "%-16s %s\n", "Vibration", onOff(s.VibrationEnabled))
	fmt.Fprintf(out, "%-16s %s\n", "Notifications", onOff(s.NotificationsEnabled))
	fmt.Fprintf(out, "%-16s %s\n", "Premium", onOff(s.IsPremium))
	fmt.Fprintf(out, "%-16s %s\n", "Blocked apps", apps)
}
