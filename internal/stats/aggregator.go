// Package stats computes aggregate focus statistics. Everything here is a
// pure function of its inputs.
package stats

import "github.com/balkashynov/fencer/internal/models"

// Outcome describes how a terminated session ended
type Outcome struct {
	Completed bool
	Minutes   int
}

// Next folds one terminated session into the previous aggregate.
//
// Abandoned sessions only bump the total: they neither build nor break a
// streak and do not move the streak anchor. A completion on the same day as
// the anchor keeps the streak, one on the following day extends it, and any
// other gap (or no anchor yet) restarts it at 1.
func Next(previous models.UserStats, outcome Outcome, today models.Date) models.UserStats {
	next := previous
	next.TotalSessions = previous.TotalSessions + 1

	if !outcome.Completed {
		return next
	}

	next.CompletedSessions = previous.CompletedSessions + 1
	next.TotalMinutes = previous.TotalMinutes + outcome.Minutes

	switch {
	case previous.LastSessionDate == nil:
		next.CurrentStreak = 1
	case today.DaysSince(*previous.LastSessionDate) == 0:
		next.CurrentStreak = previous.CurrentStreak
	case today.DaysSince(*previous.LastSessionDate) == 1:
		next.CurrentStreak = previous.CurrentStreak + 1
	default:
		next.CurrentStreak = 1
	}

	anchor := today
	next.LastSessionDate = &anchor
	next.BestStreak = max(previous.BestStreak, next.CurrentStreak)

	return next
}

// AsOf returns s as seen on today: a streak whose last completed day is
// before yesterday has lapsed and reads as 0. BestStreak is kept.
func AsOf(s models.UserStats, today models.Date) models.UserStats {
	if s.LastSessionDate != nil && today.DaysSince(*s.LastSessionDate) > 1 {
		s.CurrentStreak = 0
	}
	return s
}
