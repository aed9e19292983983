// Package booking is the scheduling engine: it turns tenant schedules and
// existing appointments into bookable slots, and converts a slot choice into
// a confirmed appointment without double-booking.
package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chairtimehq/chairtime/services/booking-service/internal/model"
)

// Domain failures are typed so callers can tell a validation problem from a
// lost race from a transient storage fault. Anything not listed here is
// infrastructure and safe to retry at the collaborator layer; the engine
// itself never retries.
var (
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrSlotInPast rejects any start time not strictly in the future.
	ErrSlotInPast = errors.New("slot start time must be in the future")

	// ErrSlotUnavailable means the slot was lost to a concurrent booking or
	// is no longer derivable from the schedule. The client should re-fetch
	// availability and pick again, not retry the same slot.
	ErrSlotUnavailable = errors.New("slot is no longer available")

	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrClientContactRequired means neither email nor phone was supplied,
	// leaving no tenant-scoped identity to upsert the client by.
	ErrClientContactRequired = errors.New("client email or phone is required")

	// ErrCancellationWindowClosed means the cancellation policy refused the
	// request; the appointment state is untouched.
	ErrCancellationWindowClosed = errors.New("cancellation window has closed")

	// ErrInvalidDate rejects a slot query whose date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
)

// ProviderNotFoundError covers missing, inactive, and cross-tenant providers
// alike; callers get no signal about which case applied.
type ProviderNotFoundError struct {
	ProviderID string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("provider %s not found", e.ProviderID)
}

// ServiceNotFoundError reports every requested service id that is missing,
// inactive, or belongs to another tenant.
type ServiceNotFoundError struct {
	ServiceIDs []string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("services not found: %s", strings.Join(e.ServiceIDs, ", "))
}

// InvalidTransitionError reports a status change the state machine forbids.
type InvalidTransitionError struct {
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}
