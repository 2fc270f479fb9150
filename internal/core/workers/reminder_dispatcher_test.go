package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

type fakeReminders struct {
	mu      sync.Mutex
	list    []*domain.Reminder
	err     error
	markErr error
}

func (f *fakeReminders) ListDueOn(ctx context.Context, day calendar.Date) ([]*domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Reminder
	for _, r := range f.list {
		if r.Date.Equal(day) && !r.Completed && !r.Notified {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminders) MarkNotified(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for _, r := range f.list {
		if r.ID == id {
			r.Notified = true
			return nil
		}
	}
	return domain.ErrReminderNotFound
}

type fakeUsers map[string]string

func (f fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	email, ok := f[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{ID: id, Email: email}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []domain.Notification
	failOn string
}

func (n *recordingNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if msg.Reminder.ID == n.failOn {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
	ttls []time.Duration
	err  error
}

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	l.ttls = append(l.ttls, ttl)
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

var today = calendar.MustParse("2024-04-15")

func fixture() (*fakeReminders, fakeUsers) {
	repo := &fakeReminders{list: []*domain.Reminder{
		{ID: "r1", UserID: "u1", Title: "Pill", Date: today},
		{ID: "r2", UserID: "u1", Title: "Pill", Date: today.AddDays(1)},
		{ID: "r3", UserID: "u2", Title: "Dentist", Date: today},
		{ID: "r4", UserID: "u2", Title: "Done", Date: today, Completed: true},
	}}
	users := fakeUsers{"u1": "one@kanso.app", "u2": "two@kanso.app"}
	return repo, users
}

func TestReminderDispatcher_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("Notifies due reminders once", func(t *testing.T) {
		repo, users := fixture()
		notifier := &recordingNotifier{}
		d := NewReminderDispatcher(repo, users, notifier, nil, DispatcherConfig{})

		res, err := d.RunOnce(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Sent)
		assert.Zero(t, res.Failed)

		recipients := map[string]string{}
		for _, n := range notifier.sent {
			recipients[n.Reminder.ID] = n.To
		}
		assert.Equal(t, map[string]string{"r1": "one@kanso.app", "r3": "two@kanso.app"}, recipients)

		res, err = d.RunOnce(ctx, today)
		require.NoError(t, err)
		assert.Zero(t, res.Sent, "already notified reminders are not sent again")
		assert.Equal(t, 2, notifier.count())
	})

	t.Run("Failed delivery is retried on the next pass", func(t *testing.T) {
		repo, users := fixture()
		notifier := &recordingNotifier{failOn: "r1"}
		d := NewReminderDispatcher(repo, users, notifier, nil, DispatcherConfig{})

		res, err := d.RunOnce(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)
		assert.Equal(t, 1, res.Failed)

		notifier.failOn = ""
		res, err = d.RunOnce(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)
	})

	t.Run("Unknown owner counts as failure", func(t *testing.T) {
		repo, _ := fixture()
		d := NewReminderDispatcher(repo, fakeUsers{"u1": "one@kanso.app"}, &recordingNotifier{}, nil, DispatcherConfig{})

		res, err := d.RunOnce(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)
		assert.Equal(t, 1, res.Failed)
	})

	t.Run("Held lock skips the pass", func(t *testing.T) {
		repo, users := fixture()
		notifier := &recordingNotifier{}
		locker := &memLocker{held: map[string]bool{"dispatch:lock:2024-04-15": true}}
		d := NewReminderDispatcher(repo, users, notifier, locker, DispatcherConfig{})

		res, err := d.RunOnce(ctx, today)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Zero(t, notifier.count())
	})

	t.Run("Lock backend error still dispatches", func(t *testing.T) {
		repo, users := fixture()
		notifier := &recordingNotifier{}
		d := NewReminderDispatcher(repo, users, notifier, &memLocker{err: errors.New("redis down")}, DispatcherConfig{})

		res, err := d.RunOnce(ctx, today)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Sent)
	})

	t.Run("Lock expires before the next tick", func(t *testing.T) {
		repo, users := fixture()
		locker := &memLocker{held: map[string]bool{}}
		interval := 10 * time.Minute
		d := NewReminderDispatcher(repo, users, &recordingNotifier{}, locker, DispatcherConfig{Interval: interval})

		_, err := d.RunOnce(ctx, today)
		require.NoError(t, err)

		require.Len(t, locker.ttls, 1)
		assert.Less(t, locker.ttls[0], interval)
		assert.Equal(t, 9*time.Minute, locker.ttls[0])
	})

	t.Run("Unmarked delivery counts as failure", func(t *testing.T) {
		repo, users := fixture()
		repo.markErr = errors.New("db down")
		notifier := &recordingNotifier{}
		d := NewReminderDispatcher(repo, users, notifier, nil, DispatcherConfig{})

		res, err := d.RunOnce(ctx, today)
		require.NoError(t, err)
		assert.Zero(t, res.Sent)
		assert.Equal(t, 2, res.Failed)
		assert.Equal(t, 2, notifier.count(), "the notifications did go out")
	})

	t.Run("Repository error is returned", func(t *testing.T) {
		repo, users := fixture()
		repo.err = errors.New("db down")
		d := NewReminderDispatcher(repo, users, &recordingNotifier{}, nil, DispatcherConfig{})

		_, err := d.RunOnce(ctx, today)
		assert.ErrorContains(t, err, "db down")
	})
}

func TestReminderDispatcher_TickRespectsHour(t *testing.T) {
	repo, users := fixture()
	notifier := &recordingNotifier{}
	d := NewReminderDispatcher(repo, users, notifier, nil, DispatcherConfig{
		Interval: time.Hour,
		Hour:     8,
		Location: time.UTC,
	})

	d.now = func() time.Time { return time.Date(2024, 4, 15, 7, 59, 0, 0, time.UTC) }
	d.tick(context.Background())
	assert.Zero(t, notifier.count(), "nothing is sent before the dispatch hour")

	d.now = func() time.Time { return time.Date(2024, 4, 15, 8, 0, 0, 0, time.UTC) }
	d.tick(context.Background())
	assert.Equal(t, 2, notifier.count())
}

func TestReminderDispatcher_StopWaitsForLoop(t *testing.T) {
	repo, users := fixture()
	d := NewReminderDispatcher(repo, users, &recordingNotifier{}, nil, DispatcherConfig{Interval: time.Millisecond, Location: time.UTC})

	d.Start(context.Background())

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
