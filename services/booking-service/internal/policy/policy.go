// Package policy decides whether a client-initiated cancellation is still
// permitted. It never mutates appointment state; callers that get a green
// light go through the status transition path.
package policy

import (
	"context"
	"time"

	"github.com/chairtimehq/chairtime/services/booking-service/internal/model"
)

// DefaultCutoff applies when a tenant has not configured its own window.
const DefaultCutoff = 2 * time.Hour

// Provider resolves the cancellation cutoff for a tenant.
type Provider interface {
	CancellationCutoff(ctx context.Context, tenantID string) (time.Duration, error)
}

type staticProvider struct {
	cutoff time.Duration
}

func NewStaticProvider(cutoff time.Duration) Provider {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	return &staticProvider{cutoff: cutoff}
}

func (p *staticProvider) CancellationCutoff(_ context.Context, _ string) (time.Duration, error) {
	return p.cutoff, nil
}

// TenantSource is the subset of the directory the tenant-backed provider needs.
type TenantSource interface {
	Tenant(ctx context.Context, tenantID string) (model.Tenant, error)
}

type tenantProvider struct {
	source   TenantSource
	fallback time.Duration
}

// NewTenantProvider reads the cutoff from tenant configuration, falling back
// to the static default when the tenant has none set.
func NewTenantProvider(source TenantSource, fallback time.Duration) Provider {
	if fallback <= 0 {
		fallback = DefaultCutoff
	}
	return &tenantProvider{source: source, fallback: fallback}
}

func (p *tenantProvider) CancellationCutoff(ctx context.Context, tenantID string) (time.Duration, error) {
	tenant, err := p.source.Tenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if tenant.CancellationCutoffMinutes <= 0 {
		return p.fallback, nil
	}
	return time.Duration(tenant.CancellationCutoffMinutes) * time.Minute, nil
}

// CanCancel reports whether the appointment may still be cancelled by its
// client: only SCHEDULED appointments, and only while more than cutoff
// remains before the start time. CONFIRMED appointments are not
// client-cancellable; staff go through the transition path instead.
func CanCancel(appt model.Appointment, now time.Time, cutoff time.Duration) bool {
	if appt.Status != model.StatusScheduled {
		return false
	}
	return appt.StartTime.Sub(now) > cutoff
}
