package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/stats"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/metrics"
)

const (
	DefaultHistoryDays = 7
	MaxHistoryDays     = 365
)

var ErrInvalidHistoryRange = fmt.Errorf("%w: days must be between 1 and %d", domain.ErrValidation, MaxHistoryDays)

type HabitService struct {
	repo domain.HabitDayRepository
}

func NewHabitService(repo domain.HabitDayRepository) *HabitService {
	return &HabitService{
		repo: repo,
	}
}

type UpsertHabitDayInput struct {
	UserID string
	// Date defaults to today when zero.
	Date  calendar.Date
	Patch domain.HabitDayPatch
}

// Today returns the stored record for today, or an unsaved default one.
func (s *HabitService) Today(ctx context.Context, userID string, today calendar.Date) (*domain.HabitDay, error) {
	day, err := s.repo.Get(ctx, userID, today)
	if errors.Is(err, domain.ErrHabitDayNotFound) {
		return domain.NewHabitDay(userID, today), nil
	}
	if err != nil {
		return nil, err
	}
	return day, nil
}

// Upsert merges the patch into the record for the given day and persists the result.
// Repeating the same payload leaves a single record.
func (s *HabitService) Upsert(ctx context.Context, input UpsertHabitDayInput, today calendar.Date) (*domain.HabitDay, error) {
	if err := input.Patch.Validate(); err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = today
	}

	day, err := s.repo.Get(ctx, input.UserID, date)
	if errors.Is(err, domain.ErrHabitDayNotFound) {
		day = domain.NewHabitDay(input.UserID, date)
	} else if err != nil {
		return nil, err
	}

	day.Merge(input.Patch)
	if err := day.Validate(today); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, day); err != nil {
		return nil, err
	}

	metrics.HabitUpserts.Inc()
	return day, nil
}

// History returns the most recent records on or before today, newest first.
func (s *HabitService) History(ctx context.Context, userID string, today calendar.Date, days int) ([]*domain.HabitDay, error) {
	if days < 1 || days > MaxHistoryDays {
		return nil, ErrInvalidHistoryRange
	}
	return s.repo.ListRecent(ctx, userID, today, days)
}

func (s *HabitService) Streak(ctx context.Context, userID string, today calendar.Date) (*domain.StreakSnapshot, error) {
	start := time.Now()
	defer func() {
		metrics.StreakComputeDuration.Observe(time.Since(start).Seconds())
	}()

	days, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := stats.Compute(days, today)
	return &snapshot, nil
}

func (s *HabitService) Clear(ctx context.Context, userID string) (int, error) {
	return s.repo.DeleteAll(ctx, userID)
}
