package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/balkashynov/fencer/internal/models"
)

var (
	plainMinutesRegex = regexp.MustCompile(`^(\d+)$`)
	unitRegex         = regexp.MustCompile(`^(\d+)\s*(m|min|mins|minute|minutes|h|hr|hrs|hour|hours)$`)
	compoundRegex     = regexp.MustCompile(`^(\d+)\s*h\s*(\d+)\s*m$`)
)

// ParseMinutes parses a session length into minutes
// Supported formats:
// - plain minutes (e.g., "25")
// - X m / X minutes (e.g., "25m", "90 minutes")
// - X h / X hours (e.g., "1h", "2 hours")
// - XhYm (e.g., "1h30m")
//
// The result must fall within the allowed session range.
func ParseMinutes(input string) (int, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, fmt.Errorf("duration is empty")
	}

	minutes, err := parseAmount(input)
	if err != nil {
		return 0, err
	}

	if minutes < models.MinDurationMinutes || minutes > models.MaxDurationMinutes {
		return 0, fmt.Errorf("duration must be between %d and %d minutes, got %d",
			models.MinDurationMinutes, models.MaxDurationMinutes, minutes)
	}
	return minutes, nil
}

func parseAmount(input string) (int, error) {
	if m := plainMinutesRegex.FindStringSubmatch(input); m != nil {
		return atoi(m[1])
	}

	if m := compoundRegex.FindStringSubmatch(input); m != nil {
		hours, err := atoi(m[1])
		if err != nil {
			return 0, err
		}
		mins, err := atoi(m[2])
		if err != nil {
			return 0, err
		}
		return hours*60 + mins, nil
	}

	if m := unitRegex.FindStringSubmatch(input); m != nil {
		amount, err := atoi(m[1])
		if err != nil {
			return 0, err
		}
		if strings.HasPrefix(m[2], "h") {
			return amount * 60, nil
		}
		return amount, nil
	}

	return 0, fmt.Errorf("invalid duration %q. Use: 25, 25m, 1h or 1h30m", input)
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n > 100000 {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

// FormatClock renders seconds as MM:SS, or H:MM:SS from an hour up
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatMinutes renders a minute count for display, e.g. "25m" or "2h 5m"
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
