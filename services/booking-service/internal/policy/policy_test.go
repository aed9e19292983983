package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chairtimehq/chairtime/services/booking-service/internal/model"
)

func TestCanCancel_CutoffBoundary(t *testing.T) {
	now := time.Date(2026, 9, 9, 12, 0, 0, 0, time.UTC)
	cutoff := 2 * time.Hour

	appt := model.Appointment{Status: model.StatusScheduled}

	appt.StartTime = now.Add(2*time.Hour + time.Second)
	if !CanCancel(appt, now, cutoff) {
		t.Fatal("just outside the cutoff should be cancellable")
	}

	// Exactly at the cutoff the window has closed.
	appt.StartTime = now.Add(2 * time.Hour)
	if CanCancel(appt, now, cutoff) {
		t.Fatal("exactly at the cutoff should not be cancellable")
	}

	appt.StartTime = now.Add(2*time.Hour - time.Second)
	if CanCancel(appt, now, cutoff) {
		t.Fatal("inside the cutoff should not be cancellable")
	}
}

func TestCanCancel_OnlyScheduled(t *testing.T) {
	now := time.Date(2026, 9, 9, 12, 0, 0, 0, time.UTC)
	start := now.Add(48 * time.Hour)

	for _, status := range []model.Status{model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled} {
		appt := model.Appointment{Status: status, StartTime: start}
		if CanCancel(appt, now, DefaultCutoff) {
			t.Errorf("status %s should not be client-cancellable", status)
		}
	}
}

type fakeTenantSource struct {
	tenant model.Tenant
	err    error
}

func (f *fakeTenantSource) Tenant(_ context.Context, _ string) (model.Tenant, error) {
	return f.tenant, f.err
}

func TestTenantProvider_ReadsTenantCutoff(t *testing.T) {
	src := &fakeTenantSource{tenant: model.Tenant{ID: "t1", CancellationCutoffMinutes: 360}}
	p := NewTenantProvider(src, DefaultCutoff)

	got, err := p.CancellationCutoff(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got != 6*time.Hour {
		t.Fatalf("expected 6h, got %s", got)
	}
}

func TestTenantProvider_FallsBackWhenUnset(t *testing.T) {
	src := &fakeTenantSource{tenant: model.Tenant{ID: "t1"}}
	p := NewTenantProvider(src, 90*time.Minute)

	got, err := p.CancellationCutoff(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got != 90*time.Minute {
		t.Fatalf("expected 90m fallback, got %s", got)
	}
}

func TestTenantProvider_PropagatesErrors(t *testing.T) {
	wantErr := errors.New("boom")
	p := NewTenantProvider(&fakeTenantSource{err: wantErr}, 0)

	if _, err := p.CancellationCutoff(context.Background(), "t1"); !errors.Is(err, wantErr) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestStaticProvider_DefaultsOnNonPositive(t *testing.T) {
	p := NewStaticProvider(0)
	got, err := p.CancellationCutoff(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultCutoff {
		t.Fatalf("expected default cutoff, got %s", got)
	}
}
