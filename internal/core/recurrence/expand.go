// Package recurrence expands a fixed-stride rule into concrete calendar dates.
package recurrence

import (
	"fmt"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

// MaxOccurrences bounds a single expansion to roughly one year of daily doses.
const MaxOccurrences = 366

const defaultStride = 1

// Rule is a start date plus an optional stride and occurrence count.
// A nil PillCount (or 1) means a single occurrence.
type Rule struct {
	Start         calendar.Date
	FrequencyDays *int
	PillCount     *int
}

// Recurring reports whether the rule yields more than one occurrence.
func (r Rule) Recurring() bool {
	return r.PillCount != nil && *r.PillCount > 1
}

func (r Rule) Validate() error {
	if r.Start.IsZero() {
		return fmt.Errorf("%w: start date is required", domain.ErrInvalidRule)
	}
	if r.PillCount != nil {
		if *r.PillCount <= 0 {
			return fmt.Errorf("%w: pill_count must be positive, got %d", domain.ErrInvalidRule, *r.PillCount)
		}
		if *r.PillCount > MaxOccurrences {
			return fmt.Errorf("%w: pill_count cannot exceed %d, got %d", domain.ErrInvalidRule, MaxOccurrences, *r.PillCount)
		}
	}
	if r.FrequencyDays != nil {
		if *r.FrequencyDays <= 0 {
			return fmt.Errorf("%w: frequency_days must be positive, got %d", domain.ErrInvalidRule, *r.FrequencyDays)
		}
		if *r.FrequencyDays > domain.MaxFrequencyDays {
			return fmt.Errorf("%w: frequency_days cannot exceed %d, got %d", domain.ErrInvalidRule, domain.MaxFrequencyDays, *r.FrequencyDays)
		}
	}
	return nil
}

// Expand returns the occurrence dates of r in strictly increasing order.
// Occurrence i falls on Start + i*FrequencyDays; a missing stride defaults to one day.
func Expand(r Rule) ([]calendar.Date, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	count := 1
	if r.PillCount != nil {
		count = *r.PillCount
	}

	stride := defaultStride
	if r.FrequencyDays != nil {
		stride = *r.FrequencyDays
	}

	// Both factors are bounded by Validate, so the product stays small.
	if last := r.Start.AddDays((count - 1) * stride); last.After(calendar.Max) {
		return nil, fmt.Errorf("%w: last occurrence %s falls after %s", domain.ErrInvalidRule, last, calendar.Max)
	}

	dates := make([]calendar.Date, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, r.Start.AddDays(i*stride))
	}
	return dates, nil
}
