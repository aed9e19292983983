package outbox

import (
	"encoding/json"
	"time"

	"github.com/chairtimehq/chairtime/services/booking-service/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (one topic per event type).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventAppointmentBooked    = "booking.appointment.booked.v1"
	EventAppointmentConfirmed = "booking.appointment.confirmed.v1"
	EventAppointmentCompleted = "booking.appointment.completed.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
)

// EventForStatus maps a lifecycle status to its event type. Booked is emitted
// by the create path, not by a transition.
func EventForStatus(s model.Status) string {
	switch s {
	case model.StatusConfirmed:
		return EventAppointmentConfirmed
	case model.StatusCompleted:
		return EventAppointmentCompleted
	case model.StatusCancelled:
		return EventAppointmentCancelled
	default:
		return ""
	}
}

// AppointmentEvent builds the envelope for an appointment lifecycle event.
// The payload carries the client's contact fields so consumers can deliver
// notifications without reading booking tables.
func AppointmentEvent(eventType string, appt model.Appointment, recipientEmail, recipientPhone string) (Event, error) {
	body := map[string]any{
		"appointment_id": appt.ID,
		"tenant_id":      appt.TenantID,
		"provider_id":    appt.ProviderID,
		"client_id":      appt.ClientID,
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
		"status":         string(appt.Status),
	}
	if recipientEmail != "" {
		body["client_email"] = recipientEmail
	}
	if recipientPhone != "" {
		body["client_phone"] = recipientPhone
	}
	if len(appt.Services) > 0 {
		lines := make([]map[string]string, 0, len(appt.Services))
		for _, l := range appt.Services {
			lines = append(lines, map[string]string{
				"service_id":       l.ServiceID,
				"price_at_booking": l.PriceAtBooking,
			})
		}
		body["services"] = lines
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
