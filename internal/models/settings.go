package models

import (
	"fmt"
	"strings"
)

// Theme is the color scheme used by the terminal UI
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeNeon  Theme = "neon"
)

// Duration bounds for a focus session, in minutes
const (
	MinDurationMinutes     = 1
	MaxDurationMinutes     = 120
	DefaultDurationMinutes = 25
)

// ParseTheme validates a theme name
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeNeon:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme %q (want light, dark or neon)", s)
	}
}

// AppSettings is the single user configuration record
type AppSettings struct {
	Theme                Theme    `json:"theme"`
	DefaultDuration      int      `json:"default_duration"` // minutes
	SoundEnabled         bool     `json:"sound_enabled"`
	VibrationEnabled     bool     `json:"vibration_enabled"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
	BlockedApps          []string `json:"blocked_apps"`
	HasUnlockedNeon      bool     `json:"has_unlocked_neon"`
	IsPremium            bool     `json:"is_premium"`
}

// DefaultSettings returns the settings used when nothing has been saved yet
func DefaultSettings() AppSettings {
	return AppSettings{
		Theme:                ThemeDark,
		DefaultDuration:      DefaultDurationMinutes,
		SoundEnabled:         true,
		VibrationEnabled:     true,
		NotificationsEnabled: true,
		BlockedApps:          []string{},
		HasUnlockedNeon:      false,
		IsPremium:            false,
	}
}

// Validate reports the first problem with the settings, if any
func (s AppSettings) Validate() error {
	if _, err := ParseTheme(string(s.Theme)); err != nil {
		return err
	}
	if s.Theme == ThemeNeon && !s.HasUnlockedNeon {
		return fmt.Errorf("the neon theme is locked")
	}
	if s.DefaultDuration < MinDurationMinutes || s.DefaultDuration > MaxDurationMinutes {
		return fmt.Errorf("default duration must be between %d and %d minutes, got %d",
			MinDurationMinutes, MaxDurationMinutes, s.DefaultDuration)
	}
	return nil
}

// SettingsPatch is a partial update of AppSettings. Nil fields are left
// untouched; a non-nil empty BlockedApps clears the list.
type SettingsPatch struct {
	Theme                *Theme
	DefaultDuration      *int
	SoundEnabled         *bool
	VibrationEnabled     *bool
	NotificationsEnabled *bool
	BlockedApps          []string
	HasUnlockedNeon      *bool
	IsPremium            *bool
}

// IsEmpty reports whether the patch changes nothing
func (p SettingsPatch) IsEmpty() bool {
	return p.Theme == nil && p.DefaultDuration == nil && p.SoundEnabled == nil &&
		p.VibrationEnabled == nil && p.NotificationsEnabled == nil && p.BlockedApps == nil &&
		p.HasUnlockedNeon == nil && p.IsPremium == nil
}

// Apply merges the patch into s field by field and returns the result
func (p SettingsPatch) Apply(s AppSettings) AppSettings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.DefaultDuration != nil {
		s.DefaultDuration = *p.DefaultDuration
	}
	if p.SoundEnabled != nil {
		s.SoundEnabled = *p.SoundEnabled
	}
	if p.VibrationEnabled != nil {
		s.VibrationEnabled = *p.VibrationEnabled
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.BlockedApps != nil {
		s.BlockedApps = NormalizeApps(p.BlockedApps)
	}
	if p.HasUnlockedNeon != nil {
		s.HasUnlockedNeon = *p.HasUnlockedNeon
	}
	if p.IsPremium != nil {
		s.IsPremium = *p.IsPremium
	}
	return s
}
