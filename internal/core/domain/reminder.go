package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
)

const (
	ReminderTypeAppointment = "appointment"
	ReminderTypeMedication  = "medication"
	MaxReminderTitleLen     = 200
	MaxReminderDescLen      = 1000
	MaxFrequencyDays        = 365
)

var (
	ErrReminderNotFound     = fmt.Errorf("%w: reminder not found", ErrNotFound)
	ErrReminderTitleEmpty   = fmt.Errorf("%w: title is required", ErrValidation)
	ErrReminderTitleTooLong = fmt.Errorf("%w: title is too long (max %d chars)", ErrValidation, MaxReminderTitleLen)
	ErrReminderDescTooLong  = fmt.Errorf("%w: description is too long (max %d chars)", ErrValidation, MaxReminderDescLen)
	ErrReminderDateRequired = fmt.Errorf("%w: date is required", ErrValidation)
	ErrInvalidReminderType  = fmt.Errorf("%w: type must be appointment or medication", ErrValidation)
	ErrInvalidReminderTime  = fmt.Errorf("%w: time must be HH:MM 24h", ErrValidation)
	ErrRecurrenceNotAllowed = fmt.Errorf("%w: frequency_days and pill_count are only valid for medication", ErrValidation)
	ErrReminderOwnerMissing = fmt.Errorf("%w: user id is required", ErrValidation)
	ErrFrequencyTooLarge    = fmt.Errorf("%w: frequency_days cannot exceed %d", ErrValidation, MaxFrequencyDays)
)

var timeOfDayRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// Reminder is one concrete dated occurrence. Recurring rules are expanded into
// independent rows at creation time and keep no link to each other.
type Reminder struct {
	ID            string        `json:"id" db:"id"`
	UserID        string        `json:"-" db:"user_id"`
	Type          string        `json:"type" db:"type"`
	Title         string        `json:"title" db:"title"`
	Description   string        `json:"description" db:"description"`
	Date          calendar.Date `json:"date" db:"date"`
	Time          *string       `json:"time" db:"time_of_day"`
	FrequencyDays *int          `json:"frequency_days" db:"frequency_days"`
	PillCount     *int          `json:"pill_count" db:"pill_count"`
	Completed     bool          `json:"completed" db:"completed"`
	Notified      bool          `json:"notified" db:"notified"`
	Seq           int64         `json:"-" db:"seq"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// ReminderTemplate carries the fields every occurrence of a rule shares.
type ReminderTemplate struct {
	UserID        string
	Type          string
	Title         string
	Description   string
	Time          *string
	FrequencyDays *int
	PillCount     *int
}

func (t ReminderTemplate) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrReminderOwnerMissing
	}
	if err := validateReminderFields(t.Type, t.Title, t.Description, t.Time); err != nil {
		return err
	}
	if t.Type != ReminderTypeMedication && (t.FrequencyDays != nil || t.PillCount != nil) {
		return ErrRecurrenceNotAllowed
	}
	return nil
}

// NewReminder builds an occurrence of tmpl on date. The template must already be validated.
func NewReminder(tmpl ReminderTemplate, date calendar.Date) *Reminder {
	now := time.Now().UTC()

	return &Reminder{
		ID:            uuid.NewString(),
		UserID:        tmpl.UserID,
		Type:          tmpl.Type,
		Title:         strings.TrimSpace(tmpl.Title),
		Description:   strings.TrimSpace(tmpl.Description),
		Date:          date,
		Time:          copyString(tmpl.Time),
		FrequencyDays: copyInt(tmpl.FrequencyDays),
		PillCount:     copyInt(tmpl.PillCount),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ReminderPatch is a partial update. Nil fields are left unchanged; the Clear
// flags unset their field and win over a value supplied alongside.
type ReminderPatch struct {
	Type               *string
	Title              *string
	Description        *string
	Date               *calendar.Date
	Time               *string
	ClearTime          bool
	Completed          *bool
	FrequencyDays      *int
	ClearFrequencyDays bool
	PillCount          *int
	ClearPillCount     bool
}

// Apply validates the merged result before mutating r, so a rejected patch leaves r intact.
func (r *Reminder) Apply(p ReminderPatch) error {
	next := *r

	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		if p.Date.IsZero() {
			return ErrReminderDateRequired
		}
		next.Date = *p.Date
	}
	if p.ClearTime {
		next.Time = nil
	} else if p.Time != nil {
		next.Time = copyString(p.Time)
	}
	if p.Completed != nil {
		next.Completed = *p.Completed
	}
	if p.ClearFrequencyDays {
		next.FrequencyDays = nil
	} else if p.FrequencyDays != nil {
		if *p.FrequencyDays <= 0 {
			return fmt.Errorf("%w: frequency_days must be positive", ErrValidation)
		}
		if *p.FrequencyDays > MaxFrequencyDays {
			return ErrFrequencyTooLarge
		}
		next.FrequencyDays = copyInt(p.FrequencyDays)
	}
	if p.ClearPillCount {
		next.PillCount = nil
	} else if p.PillCount != nil {
		if *p.PillCount <= 0 {
			return fmt.Errorf("%w: pill_count must be positive", ErrValidation)
		}
		next.PillCount = copyInt(p.PillCount)
	}

	if err := validateReminderFields(next.Type, next.Title, next.Description, next.Time); err != nil {
		return err
	}
	if next.Type != ReminderTypeMedication && (next.FrequencyDays != nil || next.PillCount != nil) {
		return ErrRecurrenceNotAllowed
	}

	next.UpdatedAt = time.Now().UTC()
	*r = next
	return nil
}

func validateReminderFields(rType, title, desc string, timeOfDay *string) error {
	switch rType {
	case ReminderTypeAppointment, ReminderTypeMedication:
	default:
		return ErrInvalidReminderType
	}

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrReminderTitleEmpty
	}
	if len(trimmed) > MaxReminderTitleLen {
		return ErrReminderTitleTooLong
	}
	if len(strings.TrimSpace(desc)) > MaxReminderDescLen {
		return ErrReminderDescTooLong
	}

	if timeOfDay != nil && !timeOfDayRegex.MatchString(*timeOfDay) {
		return ErrInvalidReminderTime
	}
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
