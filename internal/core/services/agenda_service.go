package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 365
)

var ErrInvalidDayRange = fmt.Errorf("%w: days must be between 0 and %d", domain.ErrValidation, MaxUpcomingDays)

// AgendaService answers date-range questions over reminders. Results are recomputed
// from storage on every call.
type AgendaService struct {
	repo domain.ReminderRepository
}

func NewAgendaService(repo domain.ReminderRepository) *AgendaService {
	return &AgendaService{repo: repo}
}

// Upcoming returns incomplete reminders dated within [today, today+days].
// days == 0 means today only. today is fixed by the caller for the whole query.
func (s *AgendaService) Upcoming(ctx context.Context, userID string, today calendar.Date, days int) ([]*domain.Reminder, error) {
	if days < 0 || days > MaxUpcomingDays {
		return nil, ErrInvalidDayRange
	}

	list, err := s.repo.ListByUserInRange(ctx, userID, today, today.AddDays(days))
	if err != nil {
		return nil, err
	}

	return chronological(filterCompleted(list, false)), nil
}

// OnDate returns every reminder on date, completed or not.
func (s *AgendaService) OnDate(ctx context.Context, userID string, date calendar.Date) ([]*domain.Reminder, error) {
	if date.IsZero() {
		return nil, domain.ErrReminderDateRequired
	}

	list, err := s.repo.ListByUserInRange(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}
	return chronological(list), nil
}

func (s *AgendaService) Completed(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return chronological(filterCompleted(list, true)), nil
}

func (s *AgendaService) Active(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return chronological(filterCompleted(list, false)), nil
}

func filterCompleted(list []*domain.Reminder, completed bool) []*domain.Reminder {
	out := make([]*domain.Reminder, 0, len(list))
	for _, r := range list {
		if r.Completed == completed {
			out = append(out, r)
		}
	}
	return out
}

// chronological orders by date and keeps insertion order for reminders on the same day.
func chronological(list []*domain.Reminder) []*domain.Reminder {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].Seq < list[j].Seq
	})
	return list
}
