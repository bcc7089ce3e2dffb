package paymentRepo

import (
	"context"
	"errors"

	"slotwise/models"
)

var (
	// ErrNotFound is returned when no payment matches the query.
	ErrNotFound = errors.New("payment not found")
	// ErrAlreadyAttached is returned when AttachBooking finds the payment's
	// booking id already set; the null -> set transition happens exactly once.
	ErrAlreadyAttached = errors.New("payment already attached to a booking")
)

// PaymentRepository defines the interface for payment and pending-booking
// data access.
type PaymentRepository interface {
	// CreateIfAbsent inserts the payment unless a row with the same external
	// payment id already exists, in which case the existing row is returned.
	// This keeps intent creation idempotent under client retries.
	CreateIfAbsent(ctx context.Context, payment *models.Payment) (*models.Payment, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error)
	AttachBooking(ctx context.Context, externalID, bookingID string) error
	SetStatusByExternalID(ctx context.Context, externalID, status string) error

	CreatePendingBooking(ctx context.Context, pending *models.PendingBooking) error
	GetPendingBooking(ctx context.Context, id string) (*models.PendingBooking, error)
}
