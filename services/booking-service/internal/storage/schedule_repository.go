package storage

import (
	"context"

	"github.com/chairtimehq/chairtime/libs/db"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/schedule"
)

// ScheduleRepository stores one window row per tenant and weekday. A tenant
// with no rows yet gets the onboarding default.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) Weekly(ctx context.Context, tenantID string) (schedule.Weekly, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_open, open_minute, close_minute
		FROM tenant_schedules
		WHERE tenant_id = $1
		ORDER BY weekday ASC
	`, tenantID)
	if err != nil {
		return schedule.Weekly{}, err
	}
	defer rows.Close()

	var week schedule.Weekly
	seeded := false
	for rows.Next() {
		var weekday int
		var day schedule.Day
		if err := rows.Scan(&weekday, &day.Open, &day.OpenMinute, &day.CloseMinute); err != nil {
			return schedule.Weekly{}, err
		}
		if weekday < 0 || weekday > 6 {
			continue
		}
		week[weekday] = day
		seeded = true
	}
	if rows.Err() != nil {
		return schedule.Weekly{}, rows.Err()
	}
	if !seeded {
		return schedule.Default(), nil
	}
	return week, nil
}

// Save replaces the tenant's whole week. Callers validate first; an invalid
// window never reaches this point.
func (r *ScheduleRepository) Save(ctx context.Context, tenantID string, week schedule.Weekly) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for weekday, day := range week {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tenant_schedules (tenant_id, weekday, is_open, open_minute, close_minute)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, weekday) DO UPDATE
			SET is_open = EXCLUDED.is_open,
				open_minute = EXCLUDED.open_minute,
				close_minute = EXCLUDED.close_minute
		`, tenantID, weekday, day.Open, day.OpenMinute, day.CloseMinute); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
