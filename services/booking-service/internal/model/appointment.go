package model

import "time"

type Appointment struct {
	ID           string
	TenantID     string
	ProviderID   string
	ClientID     string
	StartTime    time.Time
	Status       Status
	CreatedByRef string
	CancelledAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
	Services     []ServiceLine
}

// ServiceLine is one service on an appointment. The price is copied from the
// catalog at booking time and never re-read, so historical appointments keep
// the price that was in effect when they were booked.
type ServiceLine struct {
	ServiceID      string
	PriceAtBooking string
}

type Client struct {
	ID       string
	TenantID string
	Name     string
	Email    string
	Phone    string
}

// ClientContact is the contact info submitted with a booking. Within a tenant
// a client is identified by email when present, otherwise by phone.
type ClientContact struct {
	Name  string
	Email string
	Phone string
}

func (c ClientContact) HasIdentity() bool {
	return c.Email != "" || c.Phone != ""
}

type Tenant struct {
	ID                        string
	Name                      string
	Timezone                  string
	SlotIntervalMinutes       int
	CancellationCutoffMinutes int
}

type Provider struct {
	ID       string
	TenantID string
	Name     string
	IsActive bool
}

type Service struct {
	ID              string
	TenantID        string
	Name            string
	DurationMinutes int
	Price           string
	IsActive        bool
}
