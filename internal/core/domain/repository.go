package domain

import (
	"context"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
)

type ReminderRepository interface {
	// CreateBatch persists every reminder or none of them.
	// On success each reminder carries its assigned insertion sequence.
	CreateBatch(ctx context.Context, reminders []*Reminder) error

	// GetByID retrieves a reminder owned by userID.
	GetByID(ctx context.Context, id, userID string) (*Reminder, error)

	// Update overwrites the stored row with r. Concurrent writers race last-write-wins.
	Update(ctx context.Context, r *Reminder) error

	// Delete removes exactly one occurrence.
	Delete(ctx context.Context, id, userID string) error

	// ListByUser returns all reminders ordered by date, then insertion order.
	ListByUser(ctx context.Context, userID string) ([]*Reminder, error)

	// ListByUserInRange returns reminders with from <= date <= to, ordered like ListByUser.
	ListByUserInRange(ctx context.Context, userID string, from, to calendar.Date) ([]*Reminder, error)

	// DeleteAllByUser removes every reminder of the owner and reports how many were deleted.
	DeleteAllByUser(ctx context.Context, userID string) (int, error)

	// ListDueOn returns incomplete, not yet notified reminders dated day, across all owners.
	ListDueOn(ctx context.Context, day calendar.Date) ([]*Reminder, error)

	// MarkNotified flags a reminder as delivered by the dispatcher.
	MarkNotified(ctx context.Context, id string) error
}

type HabitDayRepository interface {
	// Get returns the record for date, or ErrHabitDayNotFound.
	Get(ctx context.Context, userID string, date calendar.Date) (*HabitDay, error)

	// Upsert inserts or replaces the record keyed by (user, date).
	Upsert(ctx context.Context, day *HabitDay) error

	// ListRecent returns up to limit records dated on or before `until`, most recent first.
	ListRecent(ctx context.Context, userID string, until calendar.Date, limit int) ([]*HabitDay, error)

	// ListAll returns the full history of the owner, oldest first.
	ListAll(ctx context.Context, userID string) ([]*HabitDay, error)

	// DeleteAll bulk-clears the owner's log.
	DeleteAll(ctx context.Context, userID string) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
