package services_test

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

// MockReminderRepo keeps reminders in memory. failAt > 0 makes CreateBatch fail on that
// element after staging the earlier ones, to exercise rollback.
type MockReminderRepo struct {
	mu            sync.Mutex
	store         map[string]*domain.Reminder
	seq           int64
	failAt        int
	simulateError error
	createCalls   int
}

func NewMockReminderRepo() *MockReminderRepo {
	return &MockReminderRepo{store: make(map[string]*domain.Reminder)}
}

func (m *MockReminderRepo) CreateBatch(ctx context.Context, reminders []*domain.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.simulateError != nil {
		return m.simulateError
	}

	staged := make(map[string]*domain.Reminder, len(reminders))
	seq := m.seq
	for i, r := range reminders {
		if m.failAt > 0 && i+1 == m.failAt {
			return domain.ErrPersistence
		}
		seq++
		clone := *r
		clone.Seq = seq
		staged[r.ID] = &clone
	}

	for i, r := range reminders {
		r.Seq = m.seq + int64(i) + 1
	}
	m.seq = seq
	for id, r := range staged {
		m.store[id] = r
	}
	return nil
}

func (m *MockReminderRepo) GetByID(ctx context.Context, id, userID string) (*domain.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store[id]
	if !ok || r.UserID != userID {
		return nil, domain.ErrReminderNotFound
	}
	clone := *r
	return &clone, nil
}

func (m *MockReminderRepo) Update(ctx context.Context, r *domain.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	if _, ok := m.store[r.ID]; !ok {
		return domain.ErrReminderNotFound
	}
	clone := *r
	m.store[r.ID] = &clone
	return nil
}

func (m *MockReminderRepo) Delete(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store[id]
	if !ok || r.UserID != userID {
		return domain.ErrReminderNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockReminderRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	return m.filter(func(r *domain.Reminder) bool { return r.UserID == userID })
}

func (m *MockReminderRepo) ListByUserInRange(ctx context.Context, userID string, from, to calendar.Date) ([]*domain.Reminder, error) {
	return m.filter(func(r *domain.Reminder) bool {
		return r.UserID == userID && !r.Date.Before(from) && !r.Date.After(to)
	})
}

func (m *MockReminderRepo) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, r := range m.store {
		if r.UserID == userID {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *MockReminderRepo) ListDueOn(ctx context.Context, day calendar.Date) ([]*domain.Reminder, error) {
	return m.filter(func(r *domain.Reminder) bool {
		return r.Date.Equal(day) && !r.Completed && !r.Notified
	})
}

func (m *MockReminderRepo) MarkNotified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store[id]
	if !ok {
		return domain.ErrReminderNotFound
	}
	r.Notified = true
	return nil
}

func (m *MockReminderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// filter returns clones in reverse insertion order so callers cannot rely on storage order.
func (m *MockReminderRepo) filter(keep func(*domain.Reminder) bool) ([]*domain.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return nil, m.simulateError
	}

	var list []*domain.Reminder
	for _, r := range m.store {
		if keep(r) {
			clone := *r
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Seq > list[j].Seq })
	return list, nil
}

type MockHabitDayRepo struct {
	mu            sync.Mutex
	store         map[string]*domain.HabitDay
	simulateError error
	upserts       int
}

func NewMockHabitDayRepo() *MockHabitDayRepo {
	return &MockHabitDayRepo{store: make(map[string]*domain.HabitDay)}
}

func habitKey(userID string, date calendar.Date) string {
	return userID + "|" + date.String()
}

func (m *MockHabitDayRepo) Get(ctx context.Context, userID string, date calendar.Date) (*domain.HabitDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return nil, m.simulateError
	}
	d, ok := m.store[habitKey(userID, date)]
	if !ok {
		return nil, domain.ErrHabitDayNotFound
	}
	clone := *d
	return &clone, nil
}

func (m *MockHabitDayRepo) Upsert(ctx context.Context, day *domain.HabitDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	m.upserts++
	clone := *day
	m.store[habitKey(day.UserID, day.Date)] = &clone
	return nil
}

func (m *MockHabitDayRepo) ListRecent(ctx context.Context, userID string, until calendar.Date, limit int) ([]*domain.HabitDay, error) {
	all, err := m.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []*domain.HabitDay
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if !all[i].Date.After(until) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (m *MockHabitDayRepo) ListAll(ctx context.Context, userID string) ([]*domain.HabitDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.HabitDay
	for _, d := range m.store {
		if d.UserID == userID {
			clone := *d
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list, nil
}

func (m *MockHabitDayRepo) DeleteAll(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, d := range m.store {
		if d.UserID == userID {
			delete(m.store, k)
			n++
		}
	}
	return n, nil
}
