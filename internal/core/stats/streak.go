// Package stats derives streak and consistency figures from the daily habit log.
package stats

import (
	"math"
	"sort"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

// ConsistencyWindow is the trailing window, today included, used for the percentages.
// The denominator is always the full window of elapsed calendar days, not the number of
// days that happen to have a record.
const ConsistencyWindow = 30

// Compute builds the snapshot for the log as seen on today. days may be unsorted;
// records dated after today are ignored.
func Compute(days []*domain.HabitDay, today calendar.Date) domain.StreakSnapshot {
	byDate := make(map[string]*domain.HabitDay, len(days))
	sorted := make([]*domain.HabitDay, 0, len(days))

	for _, d := range days {
		if d == nil || d.Date.After(today) {
			continue
		}
		key := d.Date.String()
		if _, dup := byDate[key]; dup {
			continue
		}
		byDate[key] = d
		sorted = append(sorted, d)
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	brushing, flossing := consistency(byDate, today)

	return domain.StreakSnapshot{
		CurrentStreak:       currentStreak(byDate, today),
		LongestStreak:       longestStreak(sorted),
		BrushingConsistency: brushing,
		FlossingConsistency: flossing,
		AvgBrushingTime:     averageBrushingTime(sorted),
		TotalTrackedDays:    len(sorted),
	}
}

// currentStreak walks back from today. Today only counts once it is compliant,
// so an unfinished today does not break yesterday's run.
func currentStreak(byDate map[string]*domain.HabitDay, today calendar.Date) int {
	cursor := today
	if d, ok := byDate[today.String()]; !ok || !d.Compliant() {
		cursor = today.AddDays(-1)
	}

	streak := 0
	for {
		d, ok := byDate[cursor.String()]
		if !ok || !d.Compliant() {
			return streak
		}
		streak++
		cursor = cursor.AddDays(-1)
	}
}

func longestStreak(sorted []*domain.HabitDay) int {
	longest := 0
	run := 0
	var prev calendar.Date

	for _, d := range sorted {
		if !d.Compliant() {
			run = 0
			continue
		}
		if run > 0 && d.Date.DaysSince(prev) == 1 {
			run++
		} else {
			run = 1
		}
		prev = d.Date
		if run > longest {
			longest = run
		}
	}
	return longest
}

func consistency(byDate map[string]*domain.HabitDay, today calendar.Date) (float64, float64) {
	brushed, flossed := 0, 0

	for i := 0; i < ConsistencyWindow; i++ {
		d, ok := byDate[today.AddDays(-i).String()]
		if !ok {
			continue
		}
		if d.Brushed {
			brushed++
		}
		if d.Flossed {
			flossed++
		}
	}

	return percentage(brushed, ConsistencyWindow), percentage(flossed, ConsistencyWindow)
}

func averageBrushingTime(sorted []*domain.HabitDay) float64 {
	total, n := 0, 0
	for _, d := range sorted {
		if d.BrushingTime == nil {
			continue
		}
		total += *d.BrushingTime
		n++
	}
	if n == 0 {
		return 0
	}
	return round1(float64(total) / float64(n))
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
