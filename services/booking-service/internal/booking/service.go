package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/chairtimehq/chairtime/libs/clock"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/availability"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/model"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/policy"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/schedule"
)

// Directory supplies tenant, provider, and service identities. It is
// read-only to the engine.
type Directory interface {
	Tenant(ctx context.Context, tenantID string) (model.Tenant, error)
	Provider(ctx context.Context, tenantID, providerID string) (model.Provider, bool, error)
	// ActiveServices returns the subset of serviceIDs that exist, are active,
	// and belong to the tenant. Missing ids are simply absent.
	ActiveServices(ctx context.Context, tenantID string, serviceIDs []string) ([]model.Service, error)
}

// Schedules loads and saves a tenant's weekly operating hours.
type Schedules interface {
	Weekly(ctx context.Context, tenantID string) (schedule.Weekly, error)
	Save(ctx context.Context, tenantID string, week schedule.Weekly) error
}

// CreateParams carries everything the store needs to book atomically.
// Candidates is the deterministic slot sequence for the requested date; the
// store re-reads the occupied set inside its transaction and confirms Start
// is still free before writing.
type CreateParams struct {
	TenantID     string
	ProviderID   string
	Start        time.Time
	DayStart     time.Time
	DayEnd       time.Time
	Candidates   []time.Time
	Contact      model.ClientContact
	Lines        []model.ServiceLine
	CreatedByRef string
}

// TransitionParams requests a status change. The store validates the change
// against the current row state under lock, so a racing transition is either
// observed or rejected, never lost.
type TransitionParams struct {
	TenantID      string
	AppointmentID string
	To            model.Status
	Reason        string
}

// Store is the persistence boundary. Implementations must translate a
// uniqueness-constraint violation on (tenant, provider, start) into
// ErrSlotUnavailable and perform CreateScheduled/Transition atomically.
type Store interface {
	OccupiedStarts(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]time.Time, error)
	CreateScheduled(ctx context.Context, p CreateParams) (model.Appointment, error)
	Transition(ctx context.Context, p TransitionParams) (model.Appointment, error)
	Appointment(ctx context.Context, tenantID, appointmentID string) (model.Appointment, error)
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]model.Appointment, error)
}

type Service struct {
	dir       Directory
	schedules Schedules
	store     Store
	policy    policy.Provider
	clock     clock.Clock
	logger    *slog.Logger
}

func NewService(dir Directory, schedules Schedules, store Store, policyProvider policy.Provider, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		dir:       dir,
		schedules: schedules,
		store:     store,
		policy:    policyProvider,
		clock:     clk,
		logger:    logger,
	}
}

// BookRequest is a client's slot choice. ProviderID is required: the engine
// never auto-assigns a provider.
type BookRequest struct {
	TenantID     string
	ProviderID   string
	ServiceIDs   []string
	Start        time.Time
	Contact      model.ClientContact
	CreatedByRef string
}

// Slots returns the bookable start times for one provider and calendar date
// (YYYY-MM-DD, interpreted in the tenant's local zone). Already-elapsed slots
// are dropped.
func (s *Service) Slots(ctx context.Context, tenantID, providerID, date string) ([]time.Time, error) {
	tenant, err := s.dir.Tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation("2006-01-02", date, tenantLocation(tenant))
	if err != nil {
		return nil, ErrInvalidDate
	}
	if _, ok, err := s.providerFor(ctx, tenantID, providerID); err != nil {
		return nil, err
	} else if !ok {
		return nil, &ProviderNotFoundError{ProviderID: providerID}
	}

	candidates, dayStart, dayEnd, err := s.candidatesFor(ctx, tenant, day)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	occupied, err := s.store.OccupiedStarts(ctx, tenantID, providerID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	free := availability.Filter(candidates, availability.NewOccupied(occupied))
	return availability.DropPast(free, s.clock.Now()), nil
}

// Book converts a slot choice into a SCHEDULED appointment, or fails with a
// typed error. The availability re-check and all writes happen in one atomic
// unit inside the store; of two concurrent calls for the same slot exactly
// one returns an appointment and the other ErrSlotUnavailable.
func (s *Service) Book(ctx context.Context, req BookRequest) (model.Appointment, error) {
	tenant, err := s.dir.Tenant(ctx, req.TenantID)
	if err != nil {
		return model.Appointment{}, err
	}

	provider, ok, err := s.providerFor(ctx, req.TenantID, req.ProviderID)
	if err != nil {
		return model.Appointment{}, err
	}
	if !ok {
		return model.Appointment{}, &ProviderNotFoundError{ProviderID: req.ProviderID}
	}

	lines, err := s.priceLines(ctx, req.TenantID, req.ServiceIDs)
	if err != nil {
		return model.Appointment{}, err
	}

	if !req.Contact.HasIdentity() {
		return model.Appointment{}, ErrClientContactRequired
	}

	now := s.clock.Now()
	if !req.Start.After(now) {
		return model.Appointment{}, ErrSlotInPast
	}

	day := req.Start.In(tenantLocation(tenant))
	candidates, dayStart, dayEnd, err := s.candidatesFor(ctx, tenant, day)
	if err != nil {
		return model.Appointment{}, err
	}
	if !containsStart(candidates, req.Start) {
		// Outside operating hours or misaligned with the slot grid.
		return model.Appointment{}, ErrSlotUnavailable
	}

	appt, err := s.store.CreateScheduled(ctx, CreateParams{
		TenantID:     req.TenantID,
		ProviderID:   provider.ID,
		Start:        req.Start,
		DayStart:     dayStart,
		DayEnd:       dayEnd,
		Candidates:   candidates,
		Contact:      req.Contact,
		Lines:        lines,
		CreatedByRef: req.CreatedByRef,
	})
	if err != nil {
		return model.Appointment{}, err
	}

	s.logger.Info("appointment booked",
		"tenant_id", appt.TenantID,
		"provider_id", appt.ProviderID,
		"appointment_id", appt.ID,
		"start_time", appt.StartTime.UTC().Format(time.RFC3339),
	)
	return appt, nil
}

// Transition applies a staff-requested status change. Validation happens
// under row lock in the store; disallowed pairs come back as
// *InvalidTransitionError with the row untouched.
func (s *Service) Transition(ctx context.Context, tenantID, appointmentID string, to model.Status, reason string) (model.Appointment, error) {
	appt, err := s.store.Transition(ctx, TransitionParams{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		To:            to,
		Reason:        reason,
	})
	if err != nil {
		return model.Appointment{}, err
	}
	s.logger.Info("appointment status changed",
		"tenant_id", tenantID,
		"appointment_id", appointmentID,
		"status", string(to),
	)
	return appt, nil
}

// CancelByClient runs the cancellation policy before handing the actual state
// change to Transition. The policy itself never mutates anything.
func (s *Service) CancelByClient(ctx context.Context, tenantID, appointmentID, reason string) (model.Appointment, error) {
	appt, err := s.store.Appointment(ctx, tenantID, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}

	cutoff, err := s.policy.CancellationCutoff(ctx, tenantID)
	if err != nil {
		return model.Appointment{}, err
	}
	if !policy.CanCancel(appt, s.clock.Now(), cutoff) {
		return model.Appointment{}, ErrCancellationWindowClosed
	}

	return s.Transition(ctx, tenantID, appointmentID, model.StatusCancelled, reason)
}

// UpdateSchedule validates and persists a tenant's weekly hours. An
// *schedule.InvalidWindowError never reaches persistence.
func (s *Service) UpdateSchedule(ctx context.Context, tenantID string, week schedule.Weekly) error {
	if _, err := s.dir.Tenant(ctx, tenantID); err != nil {
		return err
	}
	if err := week.Validate(); err != nil {
		return err
	}
	return s.schedules.Save(ctx, tenantID, week)
}

func (s *Service) Appointment(ctx context.Context, tenantID, appointmentID string) (model.Appointment, error) {
	return s.store.Appointment(ctx, tenantID, appointmentID)
}

func (s *Service) Appointments(ctx context.Context, tenantID string, limit int) ([]model.Appointment, error) {
	return s.store.ListByTenant(ctx, tenantID, limit)
}

func (s *Service) providerFor(ctx context.Context, tenantID, providerID string) (model.Provider, bool, error) {
	provider, ok, err := s.dir.Provider(ctx, tenantID, providerID)
	if err != nil {
		return model.Provider{}, false, err
	}
	if !ok || !provider.IsActive || provider.TenantID != tenantID {
		return model.Provider{}, false, nil
	}
	return provider, true, nil
}

// priceLines resolves the requested services and stamps current catalog
// prices onto the line items.
func (s *Service) priceLines(ctx context.Context, tenantID string, serviceIDs []string) ([]model.ServiceLine, error) {
	ids := dedupe(serviceIDs)
	if len(ids) == 0 {
		return nil, &ServiceNotFoundError{ServiceIDs: serviceIDs}
	}

	found, err := s.dir.ActiveServices(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Service, len(found))
	for _, svc := range found {
		byID[svc.ID] = svc
	}

	var missing []string
	lines := make([]model.ServiceLine, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		lines = append(lines, model.ServiceLine{ServiceID: svc.ID, PriceAtBooking: svc.Price})
	}
	if len(missing) > 0 {
		return nil, &ServiceNotFoundError{ServiceIDs: missing}
	}
	return lines, nil
}

// candidatesFor derives the deterministic slot sequence for one tenant-local
// date, plus the day bounds used to scope occupied reads.
func (s *Service) candidatesFor(ctx context.Context, tenant model.Tenant, day time.Time) ([]time.Time, time.Time, time.Time, error) {
	week, err := s.schedules.Weekly(ctx, tenant.ID)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	if err := week.Validate(); err != nil {
		return nil, time.Time{}, time.Time{}, err
	}

	interval := time.Duration(tenant.SlotIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	dayStart := schedule.At(day, 0)
	dayEnd := dayStart.AddDate(0, 0, 1)
	return availability.GenerateSlots(week, day, interval), dayStart, dayEnd, nil
}

func tenantLocation(tenant model.Tenant) *time.Location {
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

func containsStart(candidates []time.Time, start time.Time) bool {
	for _, c := range candidates {
		if c.Equal(start) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
