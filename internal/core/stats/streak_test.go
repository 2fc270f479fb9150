package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

var today = calendar.MustParse("2024-06-30")

func day(daysAgo int, brushed, flossed bool) *domain.HabitDay {
	return &domain.HabitDay{UserID: "u-1", Date: today.AddDays(-daysAgo), Brushed: brushed, Flossed: flossed}
}

func full(daysAgo int) *domain.HabitDay {
	return day(daysAgo, true, true)
}

func timed(d *domain.HabitDay, seconds int) *domain.HabitDay {
	d.BrushingTime = &seconds
	return d
}

func TestCompute_Streaks(t *testing.T) {
	tests := []struct {
		name        string
		days        []*domain.HabitDay
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "Empty log",
			days:        nil,
			wantCurrent: 0,
			wantLongest: 0,
		},
		{
			name:        "Last three days compliant, today unset",
			days:        []*domain.HabitDay{full(1), full(2), full(3)},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "Today compliant extends the run",
			days:        []*domain.HabitDay{full(0), full(1), full(2), full(3)},
			wantCurrent: 4,
			wantLongest: 4,
		},
		{
			name:        "Today recorded but incomplete does not break yesterday's run",
			days:        []*domain.HabitDay{day(0, true, false), full(1), full(2)},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name:        "Yesterday not brushed resets regardless of older history",
			days:        []*domain.HabitDay{day(1, false, true), full(2), full(3), full(4), full(5)},
			wantCurrent: 0,
			wantLongest: 4,
		},
		{
			name:        "Missing yesterday breaks the current streak",
			days:        []*domain.HabitDay{full(2), full(3)},
			wantCurrent: 0,
			wantLongest: 2,
		},
		{
			name:        "Only today compliant",
			days:        []*domain.HabitDay{full(0)},
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "Brushed only never counts",
			days:        []*domain.HabitDay{day(0, true, false), day(1, true, false)},
			wantCurrent: 0,
			wantLongest: 0,
		},
		{
			name:        "Gap in dates splits the longest run",
			days:        []*domain.HabitDay{full(10), full(11), full(13), full(14), full(15)},
			wantCurrent: 0,
			wantLongest: 3,
		},
		{
			name:        "Longest streak in the past",
			days:        []*domain.HabitDay{full(1), full(20), full(21), full(22), full(23), full(24)},
			wantCurrent: 1,
			wantLongest: 5,
		},
		{
			name:        "Unsorted input",
			days:        []*domain.HabitDay{full(2), full(0), full(1)},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "Future records are ignored",
			days:        []*domain.HabitDay{full(-1), full(0)},
			wantCurrent: 1,
			wantLongest: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.days, today)
			assert.Equal(t, tt.wantCurrent, got.CurrentStreak, "Current Streak mismatch")
			assert.Equal(t, tt.wantLongest, got.LongestStreak, "Longest Streak mismatch")
			assert.LessOrEqual(t, got.CurrentStreak, got.LongestStreak)
		})
	}
}

func TestCompute_ConsistencyUsesElapsedCalendarDays(t *testing.T) {
	t.Run("Denominator is the full window even with few records", func(t *testing.T) {
		days := []*domain.HabitDay{full(0), full(1), full(2)}

		got := Compute(days, today)

		assert.Equal(t, 10.0, got.BrushingConsistency, "3 of 30 days, not 3 of 3 records")
		assert.Equal(t, 10.0, got.FlossingConsistency)
	})

	t.Run("Brushing and flossing are counted independently", func(t *testing.T) {
		var days []*domain.HabitDay
		for i := 0; i < 30; i++ {
			days = append(days, day(i, true, i%2 == 0))
		}

		got := Compute(days, today)

		assert.Equal(t, 100.0, got.BrushingConsistency)
		assert.Equal(t, 50.0, got.FlossingConsistency)
	})

	t.Run("Records outside the window are excluded", func(t *testing.T) {
		days := []*domain.HabitDay{full(29), full(30), full(45)}

		got := Compute(days, today)

		assert.Equal(t, 3.3, got.BrushingConsistency, "only day 29 is inside [today-29, today]")
		assert.Equal(t, 3, got.TotalTrackedDays)
	})

	t.Run("Empty log yields zero", func(t *testing.T) {
		got := Compute(nil, today)
		assert.Zero(t, got.BrushingConsistency)
		assert.Zero(t, got.FlossingConsistency)
		assert.Zero(t, got.TotalTrackedDays)
	})
}

func TestCompute_AverageBrushingTime(t *testing.T) {
	t.Run("Days without a duration are excluded, not zero", func(t *testing.T) {
		days := []*domain.HabitDay{
			timed(full(0), 120),
			full(1),
			timed(full(2), 90),
			day(3, false, false),
		}

		got := Compute(days, today)

		assert.Equal(t, 105.0, got.AvgBrushingTime)
	})

	t.Run("Recorded zero is a real value", func(t *testing.T) {
		days := []*domain.HabitDay{timed(full(0), 0), timed(full(1), 100)}
		assert.Equal(t, 50.0, Compute(days, today).AvgBrushingTime)
	})

	t.Run("Rounded to one decimal", func(t *testing.T) {
		days := []*domain.HabitDay{timed(full(0), 100), timed(full(1), 100), timed(full(2), 101)}
		assert.Equal(t, 100.3, Compute(days, today).AvgBrushingTime)
	})

	t.Run("No durations yields zero", func(t *testing.T) {
		assert.Zero(t, Compute([]*domain.HabitDay{full(0)}, today).AvgBrushingTime)
	})
}

func TestCompute_DuplicateDatesCountOnce(t *testing.T) {
	days := []*domain.HabitDay{full(0), full(0), full(1)}

	got := Compute(days, today)

	assert.Equal(t, 2, got.TotalTrackedDays)
	assert.Equal(t, 2, got.CurrentStreak)
}
