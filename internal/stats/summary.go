package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"

	"github.com/balkashynov/fencer/internal/models"
)

// Summary holds the derived numbers shown next to the raw aggregate
type Summary struct {
	CompletionRate int     `json:"completion_rate"` // percent, rounded
	AverageMinutes int     `json:"average_minutes"` // per completed session, rounded
	TotalHours     int     `json:"total_hours"`     // whole hours focused
	MedianMinutes  float64 `json:"median_minutes"`  // planned minutes of completed sessions in the log
}

// Summarize derives display figures from the aggregate and the session log
func Summarize(s models.UserStats, sessions []models.Session) Summary {
	var sum Summary

	if s.TotalSessions > 0 {
		sum.CompletionRate = int(math.Round(float64(s.CompletedSessions) / float64(s.TotalSessions) * 100))
	}
	if s.CompletedSessions > 0 {
		sum.AverageMinutes = int(math.Round(float64(s.TotalMinutes) / float64(s.CompletedSessions)))
	}
	sum.TotalHours = s.TotalMinutes / 60

	var minutes mstats.Float64Data
	for _, session := range sessions {
		if session.WasCompleted {
			minutes = append(minutes, float64(session.PlannedMinutes()))
		}
	}
	if median, err := minutes.Median(); err == nil {
		sum.MedianMinutes = median
	}

	return sum
}
