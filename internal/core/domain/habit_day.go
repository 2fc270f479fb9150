package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
)

var (
	ErrHabitDayNotFound     = fmt.Errorf("%w: habit day not found", ErrNotFound)
	ErrHabitDayInFuture     = fmt.Errorf("%w: cannot record a day in the future", ErrValidation)
	ErrNegativeBrushingTime = fmt.Errorf("%w: brushing_time cannot be negative", ErrValidation)
	ErrHabitDayOwnerMissing = fmt.Errorf("%w: user id is required", ErrValidation)
	ErrHabitDayDateRequired = fmt.Errorf("%w: date is required", ErrValidation)
)

// HabitDay is the daily log record, one per owner and calendar day.
type HabitDay struct {
	UserID       string        `json:"-" db:"user_id"`
	Date         calendar.Date `json:"date" db:"date"`
	Brushed      bool          `json:"brushed" db:"brushed"`
	Flossed      bool          `json:"flossed" db:"flossed"`
	BrushingTime *int          `json:"brushing_time" db:"brushing_time"`
	CreatedAt    time.Time     `json:"-" db:"created_at"`
	UpdatedAt    time.Time     `json:"-" db:"updated_at"`
}

// NewHabitDay returns the default record for a day nobody has touched yet.
func NewHabitDay(userID string, date calendar.Date) *HabitDay {
	now := time.Now().UTC()
	return &HabitDay{
		UserID:    userID,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Compliant reports whether the day counts towards a streak.
func (d *HabitDay) Compliant() bool {
	return d.Brushed && d.Flossed
}

// HabitDayPatch is a partial merge; nil fields keep their stored value.
type HabitDayPatch struct {
	Brushed           *bool
	Flossed           *bool
	BrushingTime      *int
	ClearBrushingTime bool
}

func (p HabitDayPatch) Validate() error {
	if p.BrushingTime != nil && *p.BrushingTime < 0 {
		return ErrNegativeBrushingTime
	}
	return nil
}

func (d *HabitDay) Merge(p HabitDayPatch) {
	if p.Brushed != nil {
		d.Brushed = *p.Brushed
	}
	if p.Flossed != nil {
		d.Flossed = *p.Flossed
	}
	if p.ClearBrushingTime {
		d.BrushingTime = nil
	} else if p.BrushingTime != nil {
		d.BrushingTime = copyInt(p.BrushingTime)
	}
	d.UpdatedAt = time.Now().UTC()
}

func (d *HabitDay) Validate(today calendar.Date) error {
	if strings.TrimSpace(d.UserID) == "" {
		return ErrHabitDayOwnerMissing
	}
	if d.Date.IsZero() {
		return ErrHabitDayDateRequired
	}
	if d.Date.After(today) {
		return ErrHabitDayInFuture
	}
	if d.BrushingTime != nil && *d.BrushingTime < 0 {
		return ErrNegativeBrushingTime
	}
	return nil
}
