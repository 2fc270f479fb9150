package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

var (
	_ domain.ReminderRepository = (*InMemoryReminderRepository)(nil)
	_ domain.HabitDayRepository = (*InMemoryHabitDayRepository)(nil)
	_ domain.UserRepository     = (*InMemoryUserRepository)(nil)
)

// InMemoryReminderRepository stores copies, never the caller's pointers.
type InMemoryReminderRepository struct {
	store map[string]*domain.Reminder
	seq   int64

	mu sync.RWMutex
}

func NewInMemoryReminderRepository() *InMemoryReminderRepository {
	return &InMemoryReminderRepository{
		store: make(map[string]*domain.Reminder),
	}
}

// CreateBatch holds the write lock for the whole batch, so readers see all occurrences or none.
func (r *InMemoryReminderRepository) CreateBatch(ctx context.Context, reminders []*domain.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(reminders))
	for _, rem := range reminders {
		if _, exists := r.store[rem.ID]; exists || seen[rem.ID] {
			return fmt.Errorf("%w: duplicate reminder id %s", domain.ErrPersistence, rem.ID)
		}
		seen[rem.ID] = true
	}

	for _, rem := range reminders {
		r.seq++
		rem.Seq = r.seq
		clone := *rem
		r.store[rem.ID] = &clone
	}
	return nil
}

func (r *InMemoryReminderRepository) GetByID(ctx context.Context, id, userID string) (*domain.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rem, ok := r.store[id]
	if !ok || rem.UserID != userID {
		return nil, domain.ErrReminderNotFound
	}
	clone := *rem
	return &clone, nil
}

func (r *InMemoryReminderRepository) Update(ctx context.Context, rem *domain.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[rem.ID]
	if !ok || existing.UserID != rem.UserID {
		return domain.ErrReminderNotFound
	}

	clone := *rem
	clone.Seq = existing.Seq
	r.store[rem.ID] = &clone
	return nil
}

func (r *InMemoryReminderRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.store[id]
	if !ok || rem.UserID != userID {
		return domain.ErrReminderNotFound
	}

	delete(r.store, id)
	return nil
}

func (r *InMemoryReminderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	return r.collect(func(rem *domain.Reminder) bool {
		return rem.UserID == userID
	}), nil
}

func (r *InMemoryReminderRepository) ListByUserInRange(ctx context.Context, userID string, from, to calendar.Date) ([]*domain.Reminder, error) {
	return r.collect(func(rem *domain.Reminder) bool {
		return rem.UserID == userID && !rem.Date.Before(from) && !rem.Date.After(to)
	}), nil
}

func (r *InMemoryReminderRepository) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, rem := range r.store {
		if rem.UserID == userID {
			delete(r.store, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *InMemoryReminderRepository) ListDueOn(ctx context.Context, day calendar.Date) ([]*domain.Reminder, error) {
	return r.collect(func(rem *domain.Reminder) bool {
		return rem.Date.Equal(day) && !rem.Completed && !rem.Notified
	}), nil
}

func (r *InMemoryReminderRepository) MarkNotified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.store[id]
	if !ok {
		return domain.ErrReminderNotFound
	}
	rem.Notified = true
	return nil
}

func (r *InMemoryReminderRepository) collect(keep func(*domain.Reminder) bool) []*domain.Reminder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := []*domain.Reminder{}
	for _, rem := range r.store {
		if keep(rem) {
			clone := *rem
			list = append(list, &clone)
		}
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].Seq < list[j].Seq
	})
	return list
}

type habitDayKey struct {
	userID string
	date   string
}

type InMemoryHabitDayRepository struct {
	store map[habitDayKey]*domain.HabitDay

	mu sync.RWMutex
}

func NewInMemoryHabitDayRepository() *InMemoryHabitDayRepository {
	return &InMemoryHabitDayRepository{
		store: make(map[habitDayKey]*domain.HabitDay),
	}
}

func (r *InMemoryHabitDayRepository) Get(ctx context.Context, userID string, date calendar.Date) (*domain.HabitDay, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day, ok := r.store[habitDayKey{userID, date.String()}]
	if !ok {
		return nil, domain.ErrHabitDayNotFound
	}
	clone := *day
	return &clone, nil
}

func (r *InMemoryHabitDayRepository) Upsert(ctx context.Context, day *domain.HabitDay) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := habitDayKey{day.UserID, day.Date.String()}
	clone := *day
	if existing, ok := r.store[key]; ok {
		clone.CreatedAt = existing.CreatedAt
	}
	r.store[key] = &clone
	return nil
}

func (r *InMemoryHabitDayRepository) ListRecent(ctx context.Context, userID string, until calendar.Date, limit int) ([]*domain.HabitDay, error) {
	all := r.sorted(userID)

	recent := []*domain.HabitDay{}
	for i := len(all) - 1; i >= 0 && len(recent) < limit; i-- {
		if !all[i].Date.After(until) {
			recent = append(recent, all[i])
		}
	}
	return recent, nil
}

func (r *InMemoryHabitDayRepository) ListAll(ctx context.Context, userID string) ([]*domain.HabitDay, error) {
	return r.sorted(userID), nil
}

func (r *InMemoryHabitDayRepository) DeleteAll(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for key := range r.store {
		if key.userID == userID {
			delete(r.store, key)
			deleted++
		}
	}
	return deleted, nil
}

// sorted returns the owner's records oldest first.
func (r *InMemoryHabitDayRepository) sorted(userID string) []*domain.HabitDay {
	r.mu.RLock()
	defer r.mu.RUnlock()

	days := []*domain.HabitDay{}
	for key, day := range r.store {
		if key.userID == userID {
			clone := *day
			days = append(days, &clone)
		}
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

type InMemoryUserRepository struct {
	byID map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}

	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}
