package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/pkg/errcodes"
)

type ScheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts the schedule and fills in the generated ID and CreatedAt.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *entity.Schedule) error {
	if schedule.Status == "" {
		schedule.Status = entity.ScheduleActive
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO schedules (name, category, cron_expr, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.GetContext(ctx, &schedule.ID, query,
		schedule.Name, schedule.Category, schedule.CronExpr, string(schedule.Status), schedule.CreatedAt)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreUnavailable, "failed to create schedule")
	}

	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*entity.Schedule, error) {
	query := `
		SELECT id, name, category, cron_expr, status, last_run, created_at
		FROM schedules
		WHERE id = $1`

	var schema scheduleSchema
	err := r.db.GetContext(ctx, &schema, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewError(errcodes.ScheduleNotFound, "schedule not found")
	}
	if err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to get schedule")
	}

	return schema.toDomain(), nil
}

func (r *ScheduleRepository) List(ctx context.Context) ([]*entity.Schedule, error) {
	return r.list(ctx, `
		SELECT id, name, category, cron_expr, status, last_run, created_at
		FROM schedules
		ORDER BY id`)
}

// ListActive returns only schedules the tick loop should evaluate.
func (r *ScheduleRepository) ListActive(ctx context.Context) ([]*entity.Schedule, error) {
	return r.list(ctx, `
		SELECT id, name, category, cron_expr, status, last_run, created_at
		FROM schedules
		WHERE status = 'active'
		ORDER BY id`)
}

func (r *ScheduleRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Schedule, error) {
	var schemas []scheduleSchema
	if err := r.db.SelectContext(ctx, &schemas, query, args...); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to list schedules")
	}

	schedules := make([]*entity.Schedule, 0, len(schemas))
	for i := range schemas {
		schedules = append(schedules, schemas[i].toDomain())
	}

	return schedules, nil
}

// UpdateLastRun records a completed trigger so the next tick does not fire the
// same cron occurrence again.
func (r *ScheduleRepository) UpdateLastRun(ctx context.Context, id int64, lastRun time.Time) error {
	query := `UPDATE schedules SET last_run = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, lastRun, id)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreUnavailable, "failed to update last run")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.StoreUnavailable, "failed to check affected rows")
	}
	if rows == 0 {
		return domain.NewError(errcodes.ScheduleNotFound, "schedule not found")
	}

	return nil
}

// UpdateStatus pauses or resumes a schedule.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id int64, status entity.ScheduleStatus) error {
	query := `UPDATE schedules SET status = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreUnavailable, "failed to update schedule status")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.StoreUnavailable, "failed to check affected rows")
	}
	if rows == 0 {
		return domain.NewError(errcodes.ScheduleNotFound, "schedule not found")
	}

	return nil
}
