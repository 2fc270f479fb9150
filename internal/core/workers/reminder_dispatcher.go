package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/metrics"
)

type ReminderRepository interface {
	ListDueOn(ctx context.Context, day calendar.Date) ([]*domain.Reminder, error)
	MarkNotified(ctx context.Context, id string) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Locker guards a dispatch run across instances. TryLock reports false when another
// holder owns key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type DispatcherConfig struct {
	Interval time.Duration
	// Hour is the local hour from which today's reminders are sent.
	Hour     int
	Location *time.Location
}

// ReminderDispatcher periodically notifies owners of reminders due today.
type ReminderDispatcher struct {
	reminders ReminderRepository
	users     UserRepository
	notifier  domain.Notifier
	locker    Locker
	cfg       DispatcherConfig
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// RunResult summarizes one dispatch pass.
type RunResult struct {
	Sent    int
	Failed  int
	Skipped bool
}

func NewReminderDispatcher(reminders ReminderRepository, users UserRepository, notifier domain.Notifier, locker Locker, cfg DispatcherConfig) *ReminderDispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &ReminderDispatcher{
		reminders: reminders,
		users:     users,
		notifier:  notifier,
		locker:    locker,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (d *ReminderDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		slog.Info("reminder dispatcher started", "interval", d.cfg.Interval, "hour", d.cfg.Hour)

		ticker := time.NewTicker(d.cfg.Interval)
		defer ticker.Stop()

		d.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				slog.Info("reminder dispatcher shutting down")
				return
			case <-ticker.C:
				d.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight pass to finish.
func (d *ReminderDispatcher) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (d *ReminderDispatcher) tick(ctx context.Context) {
	now := d.now().In(d.cfg.Location)
	if now.Hour() < d.cfg.Hour {
		return
	}

	res, err := d.RunOnce(ctx, calendar.Of(now))
	if err != nil {
		slog.Error("reminder dispatch failed", "error", err)
		return
	}
	if res.Sent > 0 || res.Failed > 0 {
		slog.Info("reminder dispatch finished", "sent", res.Sent, "failed", res.Failed)
	}
}

// lockTTL releases the pass lock shortly before the next tick so consecutive
// passes on one instance never collide with their own lock.
func (d *ReminderDispatcher) lockTTL() time.Duration {
	ttl := d.cfg.Interval - d.cfg.Interval/10
	if ttl <= 0 {
		ttl = d.cfg.Interval
	}
	return ttl
}

// RunOnce notifies every reminder due on today that is neither completed nor notified.
// A failed delivery is left unmarked so the next pass retries it.
func (d *ReminderDispatcher) RunOnce(ctx context.Context, today calendar.Date) (RunResult, error) {
	var res RunResult

	if d.locker != nil {
		ok, err := d.locker.TryLock(ctx, "dispatch:lock:"+today.String(), d.lockTTL())
		if err != nil {
			slog.WarnContext(ctx, "dispatch lock unavailable, running unguarded", "error", err)
		} else if !ok {
			res.Skipped = true
			return res, nil
		}
	}

	due, err := d.reminders.ListDueOn(ctx, today)
	if err != nil {
		return res, fmt.Errorf("dispatcher: list due reminders: %w", err)
	}

	emails := make(map[string]string)
	for _, r := range due {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		to, ok := emails[r.UserID]
		if !ok {
			user, err := d.users.GetByID(ctx, r.UserID)
			if err != nil {
				if !errors.Is(err, domain.ErrUserNotFound) {
					slog.ErrorContext(ctx, "dispatcher: resolve owner", "user_id", r.UserID, "error", err)
				}
				res.Failed++
				metrics.NotificationsSent.WithLabelValues("error").Inc()
				continue
			}
			to = user.Email
			emails[r.UserID] = to
		}

		if err := d.notifier.Notify(ctx, domain.Notification{To: to, Reminder: r}); err != nil {
			slog.ErrorContext(ctx, "dispatcher: notify", "reminder_id", r.ID, "error", err)
			res.Failed++
			metrics.NotificationsSent.WithLabelValues("error").Inc()
			continue
		}

		if err := d.reminders.MarkNotified(ctx, r.ID); err != nil {
			slog.WarnContext(ctx, "dispatcher: delivered but not marked, the next pass sends it again",
				"reminder_id", r.ID, "error", err)
			res.Failed++
			metrics.NotificationsSent.WithLabelValues("unmarked").Inc()
			continue
		}
		res.Sent++
		metrics.NotificationsSent.WithLabelValues("success").Inc()
	}

	return res, nil
}
