package models

import "time"

// Payment statuses mirror the gateway's intent lifecycle.
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// Payment is the local record of a gateway payment intent. ExternalPaymentID
// is globally unique; BookingID transitions empty -> set exactly once, when
// the webhook processor materializes the deferred booking.
type Payment struct {
	ID                string    `bson:"id" json:"id"`
	ExternalPaymentID string    `bson:"external_payment_id" json:"externalPaymentId"`
	BusinessID        string    `bson:"business_id" json:"businessId"`
	ClientID          string    `bson:"client_id" json:"clientId"`
	Amount            int64     `bson:"amount" json:"amount"` // gateway minor units
	Currency          string    `bson:"currency" json:"currency"`
	Method            string    `bson:"method" json:"method"`
	Status            string    `bson:"status" json:"status"`
	BookingID         string    `bson:"booking_id,omitempty" json:"bookingId,omitempty"`
	PendingBookingID  string    `bson:"pending_booking_id" json:"-"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}

// PendingBooking stashes the parameters of a not-yet-persisted booking while
// its payment intent is outstanding. The gateway intent metadata carries only
// this record's id; a single writer (the webhook processor) materializes it.
type PendingBooking struct {
	ID            string    `bson:"id" json:"id"`
	BusinessID    string    `bson:"business_id" json:"businessId"`
	ServiceID     string    `bson:"service_id" json:"serviceId"`
	ClientID      string    `bson:"client_id" json:"clientId"`
	EmployeeID    string    `bson:"employee_id,omitempty" json:"employeeId,omitempty"`
	CourtID       string    `bson:"court_id,omitempty" json:"courtId,omitempty"`
	ScheduledAt   time.Time `bson:"scheduled_at" json:"scheduledAt"`
	PaymentMethod string    `bson:"payment_method" json:"paymentMethod"`
	ClientNotes   string    `bson:"client_notes,omitempty" json:"clientNotes,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}
