package models

import (
	"sort"
	"strings"
	"time"
)

// Session represents one timed focus attempt, completed or aborted
type Session struct {
	ID                     string    `json:"id" yaml:"id"`
	PlannedDurationSeconds int       `json:"planned_duration_seconds" yaml:"planned_duration_seconds"`
	StartedAt              time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt            time.Time `json:"completed_at" yaml:"completed_at"`
	WasCompleted           bool      `json:"was_completed" yaml:"was_completed"`
	BlockedApps            []string  `json:"blocked_apps" yaml:"blocked_apps"`
}

// PlannedMinutes returns the planned duration in whole minutes
func (s Session) PlannedMinutes() int {
	return s.PlannedDurationSeconds / 60
}

// NormalizeApps turns a list of app identifiers into a set: trimmed,
// lower-cased, de-duplicated and sorted. It never returns nil.
func NormalizeApps(apps []string) []string {
	seen := make(map[string]bool, len(apps))
	result := make([]string, 0, len(apps))
	for _, app := range apps {
		app = strings.ToLower(strings.TrimSpace(app))
		if app == "" || seen[app] {
			continue
		}
		seen[app] = true
		result = append(result, app)
	}
	sort.Strings(result)
	return result
}
