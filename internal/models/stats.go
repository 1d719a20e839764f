package models

// UserStats is the aggregate record updated once per terminated session
type UserStats struct {
	TotalSessions     int   `json:"total_sessions"`
	CompletedSessions int   `json:"completed_sessions"`
	TotalMinutes      int   `json:"total_minutes"`
	CurrentStreak     int   `json:"current_streak"`
	BestStreak        int   `json:"best_streak"`
	LastSessionDate   *Date `json:"last_session_date"` // nil until the first completed session
}
