package models

import "time"

// Booking statuses.
const (
	BookingPendingConsent = "PENDING_CONSENT"
	BookingConfirmed      = "CONFIRMED"
	BookingCancelled      = "CANCELLED"
)

// Payment statuses carried on a booking.
const (
	BookingPaymentPending = "PENDING"
	BookingPaymentPaid    = "PAID"
)

// Booking represents a reservation of a resource for one hourly slot.
// Cancelled bookings are hard-deleted, so every stored row is non-cancelled
// and the unique (resource_key, slot_key) index enforces slot exclusivity.
type Booking struct {
	ID             string     `bson:"id" json:"id"`
	ClientID       string     `bson:"client_id" json:"clientId"`
	BusinessID     string     `bson:"business_id" json:"businessId"`
	ServiceID      string     `bson:"service_id" json:"serviceId"`
	EmployeeID     string     `bson:"employee_id,omitempty" json:"employeeId,omitempty"`
	CourtID        string     `bson:"court_id,omitempty" json:"courtId,omitempty"`
	ScheduledAt    time.Time  `bson:"scheduled_at" json:"scheduledAt"`             // timezone-aware instant
	ResourceKey    string     `bson:"resource_key" json:"-"`                       // employee, else court, else business
	SlotKey        string     `bson:"slot_key" json:"-"`                           // UTC "2006-01-02T15"
	Status         string     `bson:"status" json:"status"`                        // PENDING_CONSENT | CONFIRMED
	PaymentStatus  string     `bson:"payment_status" json:"paymentStatus"`         // PENDING | PAID
	PaymentMethod  string     `bson:"payment_method,omitempty" json:"paymentMethod,omitempty"`
	Amount         float64    `bson:"amount" json:"amount"`                        // business-facing decimal units
	Currency       string     `bson:"currency" json:"currency"`
	ConsentFormID  string     `bson:"consent_form_id,omitempty" json:"consentFormId,omitempty"`
	ReminderSentAt *time.Time `bson:"reminder_sent_at,omitempty" json:"reminderSentAt,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"createdAt"`
}

// Resource returns the booked resource identity: the employee if one was
// chosen, else the court, falling back to the business itself.
func (b *Booking) Resource() string {
	if b.EmployeeID != "" {
		return b.EmployeeID
	}
	if b.CourtID != "" {
		return b.CourtID
	}
	return b.BusinessID
}

// SlotKeyFor derives the slot identity for an instant: the UTC date and hour.
func SlotKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01-02T15")
}
