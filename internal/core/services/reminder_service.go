package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/recurrence"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/metrics"
)

type ReminderService struct {
	repo domain.ReminderRepository
}

func NewReminderService(repo domain.ReminderRepository) *ReminderService {
	return &ReminderService{
		repo: repo,
	}
}

type CreateReminderInput struct {
	UserID        string
	Type          string
	Title         string
	Description   string
	Date          calendar.Date
	Time          *string
	FrequencyDays *int
	PillCount     *int
}

type UpdateReminderInput struct {
	ID     string
	UserID string
	Patch  domain.ReminderPatch
}

// CreateReminderResult holds every occurrence written for one request, in date order.
type CreateReminderResult struct {
	Reminders []*domain.Reminder
}

func (r *CreateReminderResult) Batch() bool {
	return len(r.Reminders) > 1
}

func (r *CreateReminderResult) First() *domain.Reminder {
	return r.Reminders[0]
}

// Create validates the request, expands its rule and writes all occurrences as one batch.
// Nothing is persisted when validation or expansion fails.
func (s *ReminderService) Create(ctx context.Context, input CreateReminderInput) (*CreateReminderResult, error) {
	tmpl := domain.ReminderTemplate{
		UserID:        input.UserID,
		Type:          input.Type,
		Title:         input.Title,
		Description:   input.Description,
		Time:          input.Time,
		FrequencyDays: input.FrequencyDays,
		PillCount:     input.PillCount,
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, domain.ErrReminderDateRequired
	}

	dates, err := recurrence.Expand(recurrence.Rule{
		Start:         input.Date,
		FrequencyDays: input.FrequencyDays,
		PillCount:     input.PillCount,
	})
	if err != nil {
		return nil, err
	}

	reminders := make([]*domain.Reminder, 0, len(dates))
	for _, d := range dates {
		reminders = append(reminders, domain.NewReminder(tmpl, d))
	}

	if err := s.repo.CreateBatch(ctx, reminders); err != nil {
		return nil, fmt.Errorf("reminder service: create %d occurrences: %w", len(reminders), err)
	}

	kind := "single"
	if len(reminders) > 1 {
		kind = "batch"
		slog.InfoContext(ctx, "recurring reminder expanded",
			"user_id", input.UserID, "occurrences", len(reminders),
			"first", dates[0].String(), "last", dates[len(dates)-1].String())
	}
	metrics.RemindersCreated.WithLabelValues(kind).Add(float64(len(reminders)))
	metrics.ReminderBatchSize.Observe(float64(len(reminders)))

	return &CreateReminderResult{Reminders: reminders}, nil
}

func (s *ReminderService) Get(ctx context.Context, id, userID string) (*domain.Reminder, error) {
	return s.repo.GetByID(ctx, id, userID)
}

// Update patches exactly one occurrence; siblings from the same rule are untouched.
func (s *ReminderService) Update(ctx context.Context, input UpdateReminderInput) (*domain.Reminder, error) {
	existing, err := s.repo.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := existing.Apply(input.Patch); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

func (s *ReminderService) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}

func (s *ReminderService) List(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ReminderService) ClearAll(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	metrics.RemindersCleared.Add(float64(n))
	slog.InfoContext(ctx, "reminders cleared", "user_id", userID, "deleted", n)

	return n, nil
}
