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

var _ domain.ReminderRepository = (*SQLReminderRepository)(nil)

const reminderColumns = `seq, id, user_id, type, title, description, date, time_of_day,
	frequency_days, pill_count, completed, notified, created_at, updated_at`

type SQLReminderRepository struct {
	db *sqlx.DB
}

func NewSQLReminderRepository(db *sqlx.DB) *SQLReminderRepository {
	return &SQLReminderRepository{db: db}
}

// CreateBatch inserts every occurrence in one transaction. Any failure rolls the whole
// series back and is reported as ErrPersistence.
func (r *SQLReminderRepository) CreateBatch(ctx context.Context, reminders []*domain.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO reminders (
			id, user_id, type, title, description, date, time_of_day,
			frequency_days, pill_count, completed, notified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", domain.ErrPersistence, err)
	}
	defer stmt.Close()

	seqs := make([]int64, len(reminders))
	for i, rem := range reminders {
		err := stmt.QueryRowxContext(ctx,
			rem.ID, rem.UserID, rem.Type, rem.Title, rem.Description, rem.Date, rem.Time,
			rem.FrequencyDays, rem.PillCount, rem.Completed, rem.Notified, rem.CreatedAt, rem.UpdatedAt,
		).Scan(&seqs[i])
		if err != nil {
			return fmt.Errorf("%w: insert occurrence %d of %d (%s): %v", domain.ErrPersistence, i+1, len(reminders), rem.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit batch: %v", domain.ErrPersistence, err)
	}

	for i, rem := range reminders {
		rem.Seq = seqs[i]
	}
	return nil
}

func (r *SQLReminderRepository) GetByID(ctx context.Context, id, userID string) (*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1 AND user_id = $2`

	var rem domain.Reminder
	if err := r.db.GetContext(ctx, &rem, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, fmt.Errorf("repository: get reminder: %w", err)
	}
	return &rem, nil
}

// Update writes the full row. Concurrent updates of one id race last-write-wins.
func (r *SQLReminderRepository) Update(ctx context.Context, rem *domain.Reminder) error {
	query := `
		UPDATE reminders SET
			type = $1, title = $2, description = $3, date = $4, time_of_day = $5,
			frequency_days = $6, pill_count = $7, completed = $8, notified = $9, updated_at = $10
		WHERE id = $11 AND user_id = $12`

	res, err := r.db.ExecContext(ctx, query,
		rem.Type, rem.Title, rem.Description, rem.Date, rem.Time,
		rem.FrequencyDays, rem.PillCount, rem.Completed, rem.Notified, rem.UpdatedAt,
		rem.ID, rem.UserID,
	)
	if err != nil {
		return fmt.Errorf("repository: update reminder: %w", err)
	}
	return expectOneRow(res, domain.ErrReminderNotFound)
}

func (r *SQLReminderRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("repository: delete reminder: %w", err)
	}
	return expectOneRow(res, domain.ErrReminderNotFound)
}

func (r *SQLReminderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = $1 ORDER BY date ASC, seq ASC`
	return r.list(ctx, query, userID)
}

func (r *SQLReminderRepository) ListByUserInRange(ctx context.Context, userID string, from, to calendar.Date) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, seq ASC`
	return r.list(ctx, query, userID, from, to)
}

func (r *SQLReminderRepository) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("repository: clear reminders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *SQLReminderRepository) ListDueOn(ctx context.Context, day calendar.Date) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		WHERE date = $1 AND NOT completed AND NOT notified
		ORDER BY user_id, seq`
	return r.list(ctx, query, day)
}

func (r *SQLReminderRepository) MarkNotified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET notified = $1 WHERE id = $2`, true, id)
	if err != nil {
		return fmt.Errorf("repository: mark notified: %w", err)
	}
	return expectOneRow(res, domain.ErrReminderNotFound)
}

func (r *SQLReminderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Reminder, error) {
	reminders := []*domain.Reminder{}
	if err := r.db.SelectContext(ctx, &reminders, query, args...); err != nil {
		return nil, fmt.Errorf("repository: list reminders: %w", err)
	}
	return reminders, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
