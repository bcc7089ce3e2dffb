package payment

import (
	"context"
	"errors"
	"fmt"

	paymentRepo "slotwise/database/repository/payment"
	"slotwise/models"
	"slotwise/services/booking"

	"go.uber.org/zap"
)

// Materializer turns a paid-for PendingBooking into a real Booking. It is
// the single writer of the Payment.BookingID transition and is shared by the
// confirm endpoint and the webhook processor, so both paths apply the same
// guards exactly once.
type Materializer struct {
	Payments paymentRepo.PaymentRepository
	Bookings booking.BookingService
	Logger   *zap.Logger
}

// Materialize creates the booking stashed behind the payment, attaches it to
// the Payment, and returns it. If the Payment already carries a booking id
// the existing booking is returned unchanged; that check is the per-entity
// idempotency layer beneath the webhook event flag.
func (m *Materializer) Materialize(ctx context.Context, externalPaymentID string) (*models.Booking, error) {
	payment, err := m.Payments.GetByExternalID(ctx, externalPaymentID)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrNotFound) {
			return nil, &booking.NotFoundError{Entity: "payment", ID: externalPaymentID}
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	if payment.BookingID != "" {
		return m.Bookings.GetByID(ctx, payment.BookingID)
	}

	pending, err := m.Payments.GetPendingBooking(ctx, payment.PendingBookingID)
	if err != nil {
		return nil, fmt.Errorf("load pending booking: %w", err)
	}

	created, err := m.Bookings.Create(ctx, booking.CreateInput{
		ClientID:      pending.ClientID,
		BusinessID:    pending.BusinessID,
		ServiceID:     pending.ServiceID,
		EmployeeID:    pending.EmployeeID,
		CourtID:       pending.CourtID,
		ScheduledAt:   pending.ScheduledAt,
		Paid:          true,
		PaymentMethod: pending.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	if err := m.Payments.AttachBooking(ctx, externalPaymentID, created.ID); err != nil {
		if errors.Is(err, paymentRepo.ErrAlreadyAttached) {
			// A concurrent delivery attached first. Our insert then either
			// failed on the slot index or produced the very row it attached;
			// re-read the payment and trust its booking id.
			current, gerr := m.Payments.GetByExternalID(ctx, externalPaymentID)
			if gerr == nil && current.BookingID != "" {
				m.Logger.Info("materialization raced, deferring to attached booking",
					zap.String("externalPaymentId", externalPaymentID),
					zap.String("bookingId", current.BookingID))
				return m.Bookings.GetByID(ctx, current.BookingID)
			}
			return created, nil
		}
		return nil, fmt.Errorf("attach booking to payment: %w", err)
	}

	m.Logger.Info("booking materialized from payment",
		zap.String("externalPaymentId", externalPaymentID),
		zap.String("bookingId", created.ID))
	return created, nil
}
