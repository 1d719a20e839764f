package tui

import (
	"github.com/charmbracelet/huh"

	"github.com/balkashynov/fencer/internal/models"
)

// Palette holds the colors of one theme
type Palette struct {
	CardBackground string
	Border         string

	// Text Colors
	PrimaryText   string
	SecondaryText string
	DisabledText  string
	HelpText      string

	// Accent Colors
	AccentMain   string
	AccentBright string

	// State Colors
	Error   string
	Success string
	Warning string
}

var (
	darkPalette = Palette{
		CardBackground: "#1B1530", // Dark purple
		Border:         "#3A3F55", // Grey-blue
		PrimaryText:    "#E6EAF2",
		SecondaryText:  "#B1B8C7",
		DisabledText:   "#6D7383",
		HelpText:       "240",
		AccentMain:     "#7C3AED",
		AccentBright:   "#A78BFA",
		Error:          "#EF4444",
		Success:        "#22C55E",
		Warning:        "#F59E0B",
	}

	lightPalette = Palette{
		CardBackground: "#F5F3FF",
		Border:         "#C4B5FD",
		PrimaryText:    "#1F2937",
		SecondaryText:  "#4B5563",
		DisabledText:   "#9CA3AF",
		HelpText:       "244",
		AccentMain:     "#6D28D9",
		AccentBright:   "#7C3AED",
		Error:          "#DC2626",
		Success:        "#16A34A",
		Warning:        "#D97706",
	}

	neonPalette = Palette{
		CardBackground: "#0B0B1A",
		Border:         "#FF00FF",
		PrimaryText:    "#F0F0FF",
		SecondaryText:  "#00FFFF",
		DisabledText:   "#5A5A8A",
		HelpText:       "245",
		AccentMain:     "#FF00FF",
		AccentBright:   "#39FF14",
		Error:          "#FF3131",
		Success:        "#39FF14",
		Warning:        "#FFF01F",
	}
)

// PaletteFor returns the palette of theme, dark for anything unknown
func PaletteFor(theme models.Theme) Palette {
	switch theme {
	case models.ThemeLight:
		return lightPalette
	case models.ThemeNeon:
		return neonPalette
	default:
		return darkPalette
	}
}

// formTheme picks the huh theme matching a palette
func formTheme(theme models.Theme) *huh.Theme {
	switch theme {
	case models.ThemeLight:
		return huh.ThemeBase()
	default:
		return huh.ThemeDracula()
	}
}
