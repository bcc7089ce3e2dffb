package bookingRepo

import (
	"context"
	"errors"
	"time"

	"slotwise/models"
)

var (
	// ErrNotFound is returned when no booking matches the query.
	ErrNotFound = errors.New("booking not found")
	// ErrDuplicateSlot is returned when the unique (resource, slot) index
	// rejects an insert: another non-cancelled booking holds the slot.
	ErrDuplicateSlot = errors.New("slot already booked")
	// ErrStaleTransition is returned when a conditional status update matched
	// no document, meaning the booking moved on concurrently.
	ErrStaleTransition = errors.New("booking state changed concurrently")
)

// BookingRepository defines the interface for booking data access.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByResourceDay(ctx context.Context, resourceKey string, dayStart, dayEnd time.Time) ([]models.Booking, error)
	ListByBusinessDay(ctx context.Context, businessID string, dayStart, dayEnd time.Time) ([]models.Booking, error)
	// AttachConsent stores the signed form and flips the booking from
	// PENDING_CONSENT to CONFIRMED in one transaction.
	AttachConsent(ctx context.Context, bookingID string, form *models.ConsentForm) (*models.Booking, error)
	// DeleteWithConsent removes the booking row and its consent form (if any)
	// in one transaction.
	DeleteWithConsent(ctx context.Context, bookingID string) error
	MarkReminderSent(ctx context.Context, bookingID string, at time.Time) error
	SetPaymentStatus(ctx context.Context, bookingID, paymentStatus string) error
}
