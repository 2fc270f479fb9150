package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

var _ domain.HabitDayRepository = (*SQLHabitDayRepository)(nil)

const habitDayColumns = `user_id, date, brushed, flossed, brushing_time, created_at, updated_at`

type SQLHabitDayRepository struct {
	db *sqlx.DB
}

func NewSQLHabitDayRepository(db *sqlx.DB) *SQLHabitDayRepository {
	return &SQLHabitDayRepository{db: db}
}

func (r *SQLHabitDayRepository) Get(ctx context.Context, userID string, date calendar.Date) (*domain.HabitDay, error) {
	query := `SELECT ` + habitDayColumns + ` FROM habit_days WHERE user_id = $1 AND date = $2`

	var day domain.HabitDay
	if err := r.db.GetContext(ctx, &day, query, userID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitDayNotFound
		}
		return nil, fmt.Errorf("repository: get habit day: %w", err)
	}
	return &day, nil
}

// Upsert relies on the (user_id, date) primary key so repeated writes never duplicate a day.
func (r *SQLHabitDayRepository) Upsert(ctx context.Context, day *domain.HabitDay) error {
	query := `
		INSERT INTO habit_days (user_id, date, brushed, flossed, brushing_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, date) DO UPDATE SET
			brushed = excluded.brushed,
			flossed = excluded.flossed,
			brushing_time = excluded.brushing_time,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		day.UserID, day.Date, day.Brushed, day.Flossed, day.BrushingTime, day.CreatedAt, day.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert habit day %s: %v", domain.ErrPersistence, day.Date, err)
	}
	return nil
}

func (r *SQLHabitDayRepository) ListRecent(ctx context.Context, userID string, until calendar.Date, limit int) ([]*domain.HabitDay, error) {
	query := `SELECT ` + habitDayColumns + ` FROM habit_days
		WHERE user_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT $3`
	return r.list(ctx, query, userID, until, limit)
}

func (r *SQLHabitDayRepository) ListAll(ctx context.Context, userID string) ([]*domain.HabitDay, error) {
	query := `SELECT ` + habitDayColumns + ` FROM habit_days WHERE user_id = $1 ORDER BY date ASC`
	return r.list(ctx, query, userID)
}

func (r *SQLHabitDayRepository) DeleteAll(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habit_days WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("repository: clear habit days: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *SQLHabitDayRepository) list(ctx context.Context, query string, args ...any) ([]*domain.HabitDay, error) {
	days := []*domain.HabitDay{}
	if err := r.db.SelectContext(ctx, &days, query, args...); err != nil {
		return nil, fmt.Errorf("repository: list habit days: %w", err)
	}
	return days, nil
}
