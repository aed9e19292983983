package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/chairtimehq/chairtime/libs/db"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/booking"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/model"
)

// DirectoryRepository serves the tenant/provider/service lookups the engine
// needs. Strictly read-only; tenant staff tooling owns the writes.
type DirectoryRepository struct {
	pool *db.Pool
}

func NewDirectoryRepository(pool *db.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) Tenant(ctx context.Context, tenantID string) (model.Tenant, error) {
	var t model.Tenant
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, timezone, slot_interval_minutes, cancellation_cutoff_minutes
		FROM tenants
		WHERE id = $1
	`, tenantID).Scan(&t.ID, &t.Name, &t.Timezone, &t.SlotIntervalMinutes, &t.CancellationCutoffMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tenant{}, booking.ErrTenantNotFound
		}
		return model.Tenant{}, err
	}
	return t, nil
}

func (r *DirectoryRepository) Provider(ctx context.Context, tenantID, providerID string) (model.Provider, bool, error) {
	var p model.Provider
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, is_active
		FROM providers
		WHERE id = $1 AND tenant_id = $2
	`, providerID, tenantID).Scan(&p.ID, &p.TenantID, &p.Name, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Provider{}, false, nil
		}
		return model.Provider{}, false, err
	}
	return p, true, nil
}

func (r *DirectoryRepository) ActiveServices(ctx context.Context, tenantID string, serviceIDs []string) ([]model.Service, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, tenant_id::text, name, duration_minutes, price::text, is_active
		FROM services
		WHERE tenant_id = $1
			AND id = ANY($2)
			AND is_active
	`, tenantID, serviceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.DurationMinutes, &s.Price, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
