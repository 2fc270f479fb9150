package domain

// StreakSnapshot is derived on demand from the habit log and never persisted.
// Percentages are already scaled to 0-100.
type StreakSnapshot struct {
	CurrentStreak       int     `json:"current_streak"`
	LongestStreak       int     `json:"longest_streak"`
	BrushingConsistency float64 `json:"brushing_consistency"`
	FlossingConsistency float64 `json:"flossing_consistency"`
	AvgBrushingTime     float64 `json:"avg_brushing_time"`
	TotalTrackedDays    int     `json:"total_tracked_days"`
}
