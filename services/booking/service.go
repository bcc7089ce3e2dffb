package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "slotwise/database/repository/booking"
	businessRepo "slotwise/database/repository/business"
	"slotwise/models"
	"slotwise/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateInput carries the parameters of a booking creation request, whether
// it arrives synchronously or from webhook-driven materialization.
type CreateInput struct {
	ClientID      string
	BusinessID    string
	ServiceID     string
	EmployeeID    string
	CourtID       string
	ScheduledAt   time.Time
	Paid          bool
	PaymentMethod string
}

// BookingService owns the booking lifecycle: creation, consent gating, and
// cancellation.
type BookingService interface {
	Create(ctx context.Context, in CreateInput) (*models.Booking, error)
	Cancel(ctx context.Context, id string) error
	AttachConsent(ctx context.Context, bookingID, clientID string) (*models.Booking, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListForBusiness(ctx context.Context, businessID string, date time.Time) ([]models.Booking, error)
}

// DefaultBookingService is the production implementation.
type DefaultBookingService struct {
	Bookings       bookingRepo.BookingRepository
	Businesses     businessRepo.BusinessRepository
	Notifier       notification.Service
	Policy         Policy
	ReminderBefore time.Duration
	Logger         *zap.Logger
	Clock          func() time.Time // defaults to time.Now
}

func (s *DefaultBookingService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Create validates the request, runs the creation transition, and persists
// the booking. The unique slot index turns a lost race into ErrDuplicateSlot,
// surfaced as a ConflictError; a read-then-write check alone would not be
// safe. Notification dispatch happens after the write and is best-effort.
func (s *DefaultBookingService) Create(ctx context.Context, in CreateInput) (*models.Booking, error) {
	business, err := s.Businesses.GetBusiness(ctx, in.BusinessID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			return nil, &NotFoundError{Entity: "business", ID: in.BusinessID}
		}
		return nil, fmt.Errorf("load business: %w", err)
	}
	if business.Suspended {
		return nil, &AuthorizationError{Message: "business is suspended"}
	}

	service, err := s.Businesses.GetService(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrServiceNotFound) {
			return nil, &NotFoundError{Entity: "service", ID: in.ServiceID}
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	if service.BusinessID != in.BusinessID {
		return nil, &ValidationError{Message: "service does not belong to business"}
	}

	now := s.now()
	state, err := s.Policy.Transition(TransitionInput{
		Event:            EventCreate,
		Now:              now,
		ScheduledAt:      in.ScheduledAt,
		BusinessCategory: business.Category,
	})
	if err != nil {
		return nil, err
	}

	paymentStatus := models.BookingPaymentPending
	if in.Paid {
		paymentStatus = models.BookingPaymentPaid
	}

	booking := &models.Booking{
		ID:            uuid.New().String(),
		ClientID:      in.ClientID,
		BusinessID:    in.BusinessID,
		ServiceID:     in.ServiceID,
		EmployeeID:    in.EmployeeID,
		CourtID:       in.CourtID,
		ScheduledAt:   in.ScheduledAt,
		SlotKey:       models.SlotKeyFor(in.ScheduledAt),
		Status:        state,
		PaymentStatus: paymentStatus,
		PaymentMethod: in.PaymentMethod,
		Amount:        service.Price,
		Currency:      business.Currency,
		CreatedAt:     now,
	}
	booking.ResourceKey = booking.Resource()

	if err := s.Bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingRepo.ErrDuplicateSlot) {
			return nil, &ConflictError{Message: "slot is already booked"}
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	// Bookings awaiting consent stay silent until the form is signed.
	if state == models.BookingConfirmed {
		s.Notifier.Dispatch(ctx, models.NotificationPayload{
			Kind:       models.NotifyBookingConfirmed,
			BookingID:  booking.ID,
			ClientID:   booking.ClientID,
			BusinessID: booking.BusinessID,
			When:       booking.ScheduledAt,
		})
	}
	if fireAt := in.ScheduledAt.Add(-s.ReminderBefore); s.ReminderBefore > 0 && fireAt.After(now) {
		s.Notifier.ScheduleReminder(ctx, booking.ID, fireAt)
	}

	s.Logger.Info("booking created",
		zap.String("bookingId", booking.ID),
		zap.String("status", booking.Status),
		zap.String("slot", booking.SlotKey))
	return booking, nil
}

// Cancel applies the cancellation policy and removes the booking together
// with its consent form in one transaction.
func (s *DefaultBookingService) Cancel(ctx context.Context, id string) error {
	booking, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return &NotFoundError{Entity: "booking", ID: id}
		}
		return fmt.Errorf("load booking: %w", err)
	}

	if _, err := s.Policy.Transition(TransitionInput{
		State:          booking.Status,
		Event:          EventCancel,
		Now:            s.now(),
		ScheduledAt:    booking.ScheduledAt,
		ReminderSentAt: booking.ReminderSentAt,
	}); err != nil {
		return err
	}

	if err := s.Bookings.DeleteWithConsent(ctx, id); err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return &NotFoundError{Entity: "booking", ID: id}
		}
		return fmt.Errorf("cancel booking: %w", err)
	}

	s.Notifier.Dispatch(ctx, models.NotificationPayload{
		Kind:       models.NotifyBookingCancelled,
		BookingID:  booking.ID,
		ClientID:   booking.ClientID,
		BusinessID: booking.BusinessID,
		When:       booking.ScheduledAt,
	})

	s.Logger.Info("booking cancelled", zap.String("bookingId", id))
	return nil
}

// AttachConsent records the consent collaborator's signal: the signed form is
// stored and the booking confirmed, atomically.
func (s *DefaultBookingService) AttachConsent(ctx context.Context, bookingID, clientID string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, &NotFoundError{Entity: "booking", ID: bookingID}
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if _, err := s.Policy.Transition(TransitionInput{
		State: booking.Status,
		Event: EventAttachConsent,
		Now:   s.now(),
	}); err != nil {
		return nil, err
	}

	form := &models.ConsentForm{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		ClientID:  clientID,
		SignedAt:  s.now(),
	}
	updated, err := s.Bookings.AttachConsent(ctx, bookingID, form)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrStaleTransition) {
			return nil, &ConflictError{Message: "booking is no longer awaiting consent"}
		}
		return nil, fmt.Errorf("attach consent: %w", err)
	}

	s.Notifier.Dispatch(ctx, models.NotificationPayload{
		Kind:       models.NotifyBookingConfirmed,
		BookingID:  updated.ID,
		ClientID:   updated.ClientID,
		BusinessID: updated.BusinessID,
		When:       updated.ScheduledAt,
	})
	return updated, nil
}

// GetByID retrieves a booking.
func (s *DefaultBookingService) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, &NotFoundError{Entity: "booking", ID: id}
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// ListForBusiness returns a business's bookings for one day.
func (s *DefaultBookingService) ListForBusiness(ctx context.Context, businessID string, date time.Time) ([]models.Booking, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	bookings, err := s.Bookings.ListByBusinessDay(ctx, businessID, dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
