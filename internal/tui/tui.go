package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/balkashynov/fencer/internal/engine"
	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/parser"
)

// RunTimerTUI shows the countdown for the engine's active session until it
// completes or the user gives up. It returns the finished session, and the
// error from saving it if that failed.
func RunTimerTUI(e *engine.Engine, opts TimerOptions) (*models.Session, error) {
	model := NewTimerModel(e, opts)
	unsubscribe := e.Subscribe(model.Listener())
	defer unsubscribe()

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		// never leave a session running behind a dead UI
		finished, stopErr := e.Stop(false)
		if stopErr != nil {
			err = fmt.Errorf("%w (also failed to save session: %v)", err, stopErr)
		}
		return finished, err
	}

	m := finalModel.(TimerModel)
	return m.Finished(), m.Err()
}

// Confirm asks a yes/no question
func Confirm(theme models.Theme, title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(formTheme(theme)).Run()
	return ok, err
}

// settingsFormModel holds the form's editable values
type settingsFormModel struct {
	Theme         models.Theme
	Duration      string
	Sound         bool
	Vibration     bool
	Notifications bool
	Apps          string
}

func newSettingsFormModel(s models.AppSettings) *settingsFormModel {
	return &settingsFormModel{
		Theme:         s.Theme,
		Duration:      strconv.Itoa(s.DefaultDuration),
		Sound:         s.SoundEnabled,
		Vibration:     s.VibrationEnabled,
		Notifications: s.NotificationsEnabled,
		Apps:          strings.Join(s.BlockedApps, ", "),
	}
}

// patch returns only what changed relative to current
func (fm *settingsFormModel) patch(current models.AppSettings) (models.SettingsPatch, error) {
	var p models.SettingsPatch

	if fm.Theme != current.Theme {
		theme := fm.Theme
		p.Theme = &theme
	}

	minutes, err := parser.ParseMinutes(fm.Duration)
	if err != nil {
		return models.SettingsPatch{}, err
	}
	if minutes != current.DefaultDuration {
		p.DefaultDuration = &minutes
	}

	if fm.Sound != current.SoundEnabled {
		sound := fm.Sound
		p.SoundEnabled = &sound
	}
	if fm.Vibration != current.VibrationEnabled {
		vibration := fm.Vibration
		p.VibrationEnabled = &vibration
	}
	if fm.Notifications != current.NotificationsEnabled {
		notifications := fm.Notifications
		p.NotificationsEnabled = &notifications
	}

	if apps := parser.ParseApps(fm.Apps); !slices.Equal(apps, models.NormalizeApps(current.BlockedApps)) {
		p.BlockedApps = apps
	}

	return p, nil
}

func themeOptions(s models.AppSettings) []huh.Option[models.Theme] {
	options := []huh.Option[models.Theme]{
		huh.NewOption("Dark", models.ThemeDark),
		huh.NewOption("Light", models.ThemeLight),
	}
	if s.HasUnlockedNeon {
		options = append(options, huh.NewOption("Neon", models.ThemeNeon))
	}
	return options
}

// RunSettingsForm lets the user edit settings and returns what changed
func RunSettingsForm(current models.AppSettings) (models.SettingsPatch, error) {
	fm := newSettingsFormModel(current)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[models.Theme]().
				Title("Theme").
				Options(themeOptions(current)...).
				Value(&fm.Theme),
			huh.NewInput().
				Title("Default duration").
				Description("Minutes, or e.g. 1h30m").
				Value(&fm.Duration).
				Validate(func(s string) error {
					_, err := parser.ParseMinutes(s)
					return err
				}),
			huh.NewInput().
				Title("Blocked apps").
				Description("Comma separated process names").
				Value(&fm.Apps),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Sound").
				Value(&fm.Sound),
			huh.NewConfirm().
				Title("Vibration").
				Value(&fm.Vibration),
			huh.NewConfirm().
				Title("Notifications").
				Value(&fm.Notifications),
		),
	).WithTheme(formTheme(current.Theme))

	if err := form.Run(); err != nil {
		return models.SettingsPatch{}, err
	}
	return fm.patch(current)
}
