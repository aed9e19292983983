package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chairtimehq/chairtime/libs/db"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/availability"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/booking"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/model"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/outbox"
)

// BookingRepository persists appointments. It implements booking.Store: the
// partial unique index on (tenant_id, provider_id, start_time) for live
// statuses is what actually guarantees at-most-one booking per slot; this
// code translates that constraint firing into booking.ErrSlotUnavailable.
type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewBookingRepository(pool *db.Pool, outboxRepo *outbox.Repository) *BookingRepository {
	return &BookingRepository{pool: pool, outbox: outboxRepo}
}

// OccupiedStarts returns start times of live appointments for one provider
// within [from, to). Cancelled and completed appointments do not block slots.
func (r *BookingRepository) OccupiedStarts(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time
		FROM appointments
		WHERE tenant_id = $1
			AND provider_id = $2
			AND status IN ('scheduled', 'confirmed')
			AND start_time >= $3
			AND start_time < $4
		ORDER BY start_time ASC
	`, tenantID, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var starts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		starts = append(starts, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return starts, nil
}

// CreateScheduled books a slot as one transaction: fresh occupied re-check,
// client upsert, appointment insert, service lines, outbox event. Either all
// of it commits or none of it does. A concurrent winner surfaces as
// booking.ErrSlotUnavailable, through the re-check or the unique index.
func (r *BookingRepository) CreateScheduled(ctx context.Context, p booking.CreateParams) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	occupied, err := r.occupiedStartsTx(ctx, tx, p.TenantID, p.ProviderID, p.DayStart, p.DayEnd)
	if err != nil {
		return model.Appointment{}, err
	}
	free := availability.Filter(p.Candidates, availability.NewOccupied(occupied))
	if !containsStart(free, p.Start) {
		return model.Appointment{}, booking.ErrSlotUnavailable
	}

	client, err := r.upsertClient(ctx, tx, p.TenantID, p.Contact)
	if err != nil {
		return model.Appointment{}, err
	}

	appt := model.Appointment{
		ID:           uuid.NewString(),
		TenantID:     p.TenantID,
		ProviderID:   p.ProviderID,
		ClientID:     client.ID,
		StartTime:    p.Start,
		Status:       model.StatusScheduled,
		CreatedByRef: p.CreatedByRef,
		Services:     p.Lines,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, tenant_id, provider_id, client_id, start_time, status, created_by_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, appt.ID, appt.TenantID, appt.ProviderID, appt.ClientID, appt.StartTime, string(appt.Status), appt.CreatedByRef).Scan(&appt.CreatedAt)
	if err != nil {
		if IsConflict(err) {
			return model.Appointment{}, booking.ErrSlotUnavailable
		}
		return model.Appointment{}, err
	}

	for _, line := range p.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointment_services (appointment_id, service_id, price_at_booking)
			VALUES ($1, $2, $3)
		`, appt.ID, line.ServiceID, line.PriceAtBooking); err != nil {
			return model.Appointment{}, err
		}
	}

	evt, err := outbox.AppointmentEvent(outbox.EventAppointmentBooked, appt, client.Email, client.Phone)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		if IsConflict(err) {
			return model.Appointment{}, booking.ErrSlotUnavailable
		}
		return model.Appointment{}, err
	}
	return appt, nil
}

// Transition validates and applies a status change under row lock, so racing
// transitions are linearized: the second request sees the first one's state.
func (r *BookingRepository) Transition(ctx context.Context, p booking.TransitionParams) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := r.appointmentForUpdate(ctx, tx, p.TenantID, p.AppointmentID)
	if err != nil {
		return model.Appointment{}, err
	}

	if !appt.Status.CanTransitionTo(p.To) {
		return model.Appointment{}, &booking.InvalidTransitionError{From: appt.Status, To: p.To}
	}

	if p.To == model.StatusCancelled {
		err = tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3,
				cancelled_at = now(),
				cancellation_reason = $4,
				updated_at = now()
			WHERE id = $1 AND tenant_id = $2
			RETURNING cancelled_at
		`, appt.ID, appt.TenantID, string(p.To), p.Reason).Scan(&appt.CancelledAt)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE appointments
			SET status = $3,
				updated_at = now()
			WHERE id = $1 AND tenant_id = $2
		`, appt.ID, appt.TenantID, string(p.To))
	}
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = p.To
	appt.CancelReason = p.Reason

	if eventType := outbox.EventForStatus(p.To); eventType != "" {
		email, phone, err := r.clientContact(ctx, tx, appt.ClientID)
		if err != nil {
			return model.Appointment{}, err
		}
		evt, err := outbox.AppointmentEvent(eventType, appt, email, phone)
		if err != nil {
			return model.Appointment{}, err
		}
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return model.Appointment{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *BookingRepository) Appointment(ctx context.Context, tenantID, appointmentID string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, appointmentSelect+`
		WHERE id = $1 AND tenant_id = $2
	`, appointmentID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, booking.ErrAppointmentNotFound
		}
		return model.Appointment{}, err
	}

	lines, err := r.serviceLines(ctx, appt.ID)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Services = lines
	return appt, nil
}

func (r *BookingRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, appointmentSelect+`
		WHERE tenant_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

const appointmentSelect = `
		SELECT id::text, tenant_id::text, provider_id::text, client_id::text,
			start_time, status, created_by_ref, cancelled_at,
			COALESCE(cancellation_reason, ''), created_at
		FROM appointments
`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.TenantID,
		&appt.ProviderID,
		&appt.ClientID,
		&appt.StartTime,
		&status,
		&appt.CreatedByRef,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func (r *BookingRepository) appointmentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, appointmentID string) (model.Appointment, error) {
	appt, err := scanAppointment(tx.QueryRow(ctx, appointmentSelect+`
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, appointmentID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, booking.ErrAppointmentNotFound
		}
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *BookingRepository) occupiedStartsTx(ctx context.Context, tx pgx.Tx, tenantID, providerID string, from, to time.Time) ([]time.Time, error) {
	rows, err := tx.Query(ctx, `
		SELECT start_time
		FROM appointments
		WHERE tenant_id = $1
			AND provider_id = $2
			AND status IN ('scheduled', 'confirmed')
			AND start_time >= $3
			AND start_time < $4
	`, tenantID, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var starts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		starts = append(starts, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return starts, nil
}

// upsertClient finds or creates the tenant's client row keyed by email when
// present, otherwise phone. An existing row is reused untouched, so repeat
// bookings never duplicate a client within a tenant.
func (r *BookingRepository) upsertClient(ctx context.Context, tx pgx.Tx, tenantID string, contact model.ClientContact) (model.Client, error) {
	var conflictTarget, identityColumn, identityValue string
	if contact.Email != "" {
		conflictTarget = `(tenant_id, email) WHERE email <> ''`
		identityColumn = "email"
		identityValue = contact.Email
	} else {
		conflictTarget = `(tenant_id, phone) WHERE phone <> ''`
		identityColumn = "phone"
		identityValue = contact.Phone
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO clients (id, tenant_id, name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT `+conflictTarget+` DO NOTHING
	`, uuid.NewString(), tenantID, contact.Name, contact.Email, contact.Phone)
	if err != nil {
		return model.Client{}, err
	}

	var client model.Client
	err = tx.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, email, phone
		FROM clients
		WHERE tenant_id = $1 AND `+identityColumn+` = $2
	`, tenantID, identityValue).Scan(&client.ID, &client.TenantID, &client.Name, &client.Email, &client.Phone)
	return client, err
}

func (r *BookingRepository) clientContact(ctx context.Context, tx pgx.Tx, clientID string) (email string, phone string, err error) {
	err = tx.QueryRow(ctx, `
		SELECT email, phone
		FROM clients
		WHERE id = $1
	`, clientID).Scan(&email, &phone)
	return email, phone, err
}

func (r *BookingRepository) serviceLines(ctx context.Context, appointmentID string) ([]model.ServiceLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT service_id::text, price_at_booking::text
		FROM appointment_services
		WHERE appointment_id = $1
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []model.ServiceLine
	for rows.Next() {
		var line model.ServiceLine
		if err := rows.Scan(&line.ServiceID, &line.PriceAtBooking); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return lines, nil
}

func containsStart(slots []time.Time, start time.Time) bool {
	for _, s := range slots {
		if s.Equal(start) {
			return true
		}
	}
	return false
}

// IsConflict reports a uniqueness or exclusion violation, the expected signal
// when two bookings race for one slot.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23P01")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
