package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chairtimehq/chairtime/services/booking-service/internal/booking"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/model"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/observability/metrics"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/schedule"
)

type Handler struct {
	svc     *booking.Service
	metrics *metrics.BookingMetrics
}

func New(svc *booking.Service, m *metrics.BookingMetrics) *Handler {
	return &Handler{svc: svc, metrics: m}
}

func tenantIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Tenant-Id"))
}

// writeDomainError maps engine errors onto HTTP statuses. Unknown errors are
// reported as opaque 500s so storage details never leak to clients. That
// includes *schedule.InvalidWindowError: on the public paths it means the
// stored schedule is corrupt, which is the tenant's problem, not the
// caller's. Only the schedule upsert surfaces it as a 400.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	var providerErr *booking.ProviderNotFoundError
	var serviceErr *booking.ServiceNotFoundError
	var transitionErr *booking.InvalidTransitionError

	switch {
	case errors.Is(err, booking.ErrTenantNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &providerErr), errors.As(err, &serviceErr):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrSlotInPast),
		errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrClientContactRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrCancellationWindowClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &transitionErr):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

// resultLabel collapses engine errors into low-cardinality metric labels.
func resultLabel(err error) string {
	var providerErr *booking.ProviderNotFoundError
	var serviceErr *booking.ServiceNotFoundError
	var transitionErr *booking.InvalidTransitionError

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, booking.ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, booking.ErrSlotInPast):
		return "slot_in_past"
	case errors.Is(err, booking.ErrCancellationWindowClosed):
		return "window_closed"
	case errors.As(err, &transitionErr):
		return "invalid_transition"
	case errors.Is(err, booking.ErrTenantNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound),
		errors.As(err, &providerErr),
		errors.As(err, &serviceErr):
		return "not_found"
	default:
		return "error"
	}
}

func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenantIDFromHeader(r)
	if tenantID == "" {
		http.Error(w, "missing X-Tenant-Id", http.StatusBadRequest)
		return
	}

	providerID := strings.TrimSpace(r.URL.Query().Get("provider_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if providerID == "" || date == "" {
		http.Error(w, "provider_id and date are required", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.Slots(r.Context(), tenantID, providerID, date)
	h.metrics.ObserveSlotQuery(resultLabel(err))
	if err != nil {
		writeDomainError(w, err, "failed to compute availability")
		return
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(time.RFC3339))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"provider_id": providerID,
		"date":        date,
		"slots":       out,
	})
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenantIDFromHeader(r)
	if tenantID == "" {
		http.Error(w, "missing X-Tenant-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		ProviderID   string   `json:"provider_id"`
		ServiceIDs   []string `json:"service_ids"`
		StartTime    string   `json:"start_time"`
		CreatedByRef string   `json:"created_by_ref"`
		Client       struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
		} `json:"client"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	if req.ProviderID == "" {
		http.Error(w, "provider_id is required", http.StatusBadRequest)
		return
	}
	if len(req.ServiceIDs) == 0 {
		http.Error(w, "service_ids is required", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), booking.BookRequest{
		TenantID:   tenantID,
		ProviderID: req.ProviderID,
		ServiceIDs: req.ServiceIDs,
		Start:      start,
		Contact: model.ClientContact{
			Name:  strings.TrimSpace(req.Client.Name),
			Email: strings.TrimSpace(strings.ToLower(req.Client.Email)),
			Phone: strings.TrimSpace(req.Client.Phone),
		},
		CreatedByRef: strings.TrimSpace(req.CreatedByRef),
	})
	h.metrics.ObserveBooking(resultLabel(err))
	if err != nil {
		writeDomainError(w, err, "failed to book appointment")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(appointmentPayload(appt))
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenantIDFromHeader(r)
	if tenantID == "" {
		http.Error(w, "missing X-Tenant-Id", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Appointment(r.Context(), tenantID, id)
	if err != nil {
		writeDomainError(w, err, "failed to load appointment")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(appointmentPayload(appt))
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenantIDFromHeader(r)
	if tenantID == "" {
		http.Error(w, "missing X-Tenant-Id", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 200 {
			http.Error(w, "limit must be between 1 and 200", http.StatusBadRequest)
			return
		}
		limit = v
	}

	appts, err := h.svc.Appointments(r.Context(), tenantID, limit)
	if err != nil {
		writeDomainError(w, err, "failed to list appointments")
		return
	}

	out := make([]map[string]any, 0, len(appts))
	for _, a := range appts {
		out = append(out, appointmentPayload(a))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenantIDFromHeader(r)
	if tenantID == "" {
		http.Error(w, "missing X-Tenant-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		AppointmentID string `json:"appointment_id"`
		Status        string `json:"status"`
		Reason        string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	to, ok := model.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Transition(r.Context(), tenantID, req.AppointmentID, to, strings.TrimSpace(req.Reason))
	h.metrics.ObserveTransition(string(to), resultLabel(err))
	if err != nil {
		writeDomainError(w, err, "failed to change appointment status")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(appointmentPayload(appt))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenantIDFromHeader(r)
	if tenantID == "" {
		http.Error(w, "missing X-Tenant-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		AppointmentID string `json:"appointment_id"`
		Reason        string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.CancelByClient(r.Context(), tenantID, req.AppointmentID, strings.TrimSpace(req.Reason))
	h.metrics.ObserveTransition(string(model.StatusCancelled), resultLabel(err))
	if err != nil {
		writeDomainError(w, err, "failed to cancel appointment")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(appointmentPayload(appt))
}

func (h *Handler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenantIDFromHeader(r)
	if tenantID == "" {
		http.Error(w, "missing X-Tenant-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Days []struct {
			Weekday     int  `json:"weekday"`
			IsOpen      bool `json:"is_open"`
			OpenMinute  int  `json:"open_minute"`
			CloseMinute int  `json:"close_minute"`
		} `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req.Days) == 0 {
		http.Error(w, "days is required", http.StatusBadRequest)
		return
	}

	// Days absent from the request stay closed.
	var week schedule.Weekly
	for _, d := range req.Days {
		if d.Weekday < 0 || d.Weekday > 6 {
			http.Error(w, "weekday must be between 0 and 6", http.StatusBadRequest)
			return
		}
		day := schedule.Day{Open: d.IsOpen}
		if d.IsOpen {
			day.OpenMinute = d.OpenMinute
			day.CloseMinute = d.CloseMinute
		}
		week[d.Weekday] = day
	}

	if err := h.svc.UpdateSchedule(r.Context(), tenantID, week); err != nil {
		var windowErr *schedule.InvalidWindowError
		if errors.As(err, &windowErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeDomainError(w, err, "failed to update schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func appointmentPayload(a model.Appointment) map[string]any {
	services := make([]map[string]any, 0, len(a.Services))
	for _, line := range a.Services {
		services = append(services, map[string]any{
			"service_id":       line.ServiceID,
			"price_at_booking": line.PriceAtBooking,
		})
	}

	out := map[string]any{
		"id":          a.ID,
		"tenant_id":   a.TenantID,
		"provider_id": a.ProviderID,
		"client_id":   a.ClientID,
		"status":      string(a.Status),
		"start_time":  a.StartTime.UTC().Format(time.RFC3339),
		"services":    services,
		"created_at":  a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		out["cancelled_at"] = a.CancelledAt.UTC().Format(time.RFC3339)
		out["cancellation_reason"] = a.CancelReason
	}
	return out
}
