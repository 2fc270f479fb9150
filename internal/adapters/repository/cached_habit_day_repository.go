package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

var _ domain.HabitDayRepository = (*CachedHabitDayRepository)(nil)

const habitHistoryTTL = 30 * time.Minute

// CachedHabitDayRepository keeps each owner's full history in Redis, the read path of
// the streak endpoint. Entries are keyed by a per-owner generation that every write
// bumps, so a fill computed from rows read before a write lands under a key no later
// reader looks up.
type CachedHabitDayRepository struct {
	next  domain.HabitDayRepository
	cache *redis.Client
}

func NewCachedHabitDayRepository(next domain.HabitDayRepository, cache *redis.Client) *CachedHabitDayRepository {
	return &CachedHabitDayRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedHabitDayRepository) generationKey(userID string) string {
	return fmt.Sprintf("habit_days:%s:gen", userID)
}

func (r *CachedHabitDayRepository) cacheKey(userID string, gen int64) string {
	return fmt.Sprintf("habit_days:%s:%d", userID, gen)
}

// generation returns the owner's current generation; a missing counter is zero.
func (r *CachedHabitDayRepository) generation(ctx context.Context, userID string) (int64, error) {
	gen, err := r.cache.Get(ctx, r.generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *CachedHabitDayRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Incr(ctx, r.generationKey(userID)).Err(); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed, history may be stale until expiry",
			"user_id", userID, "ttl", habitHistoryTTL, "error", err)
	}
}

func (r *CachedHabitDayRepository) ListAll(ctx context.Context, userID string) ([]*domain.HabitDay, error) {
	// The generation must be read before storage: a write landing in between bumps it.
	gen, err := r.generation(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "redis read error, bypassing cache", "user_id", userID, "error", err)
		return r.next.ListAll(ctx, userID)
	}
	key := r.cacheKey(userID, gen)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var days []*domain.HabitDay
		if err := json.Unmarshal([]byte(val), &days); err == nil {
			for _, d := range days {
				d.UserID = userID
			}
			return days, nil
		}

		slog.WarnContext(ctx, "corrupted habit cache entry, dropping", "user_id", userID)
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "redis read error", "error", err)
	}

	days, err := r.next.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(days); err == nil {
		if setErr := r.cache.Set(ctx, key, data, habitHistoryTTL).Err(); setErr != nil {
			slog.WarnContext(ctx, "redis set error", "error", setErr)
		}
	}

	return days, nil
}

func (r *CachedHabitDayRepository) Get(ctx context.Context, userID string, date calendar.Date) (*domain.HabitDay, error) {
	return r.next.Get(ctx, userID, date)
}

func (r *CachedHabitDayRepository) ListRecent(ctx context.Context, userID string, until calendar.Date, limit int) ([]*domain.HabitDay, error) {
	return r.next.ListRecent(ctx, userID, until, limit)
}

func (r *CachedHabitDayRepository) Upsert(ctx context.Context, day *domain.HabitDay) error {
	if err := r.next.Upsert(ctx, day); err != nil {
		return err
	}
	r.invalidate(ctx, day.UserID)
	return nil
}

func (r *CachedHabitDayRepository) DeleteAll(ctx context.Context, userID string) (int, error) {
	n, err := r.next.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx, userID)
	return n, nil
}
