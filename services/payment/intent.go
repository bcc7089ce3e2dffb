package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	businessRepo "slotwise/database/repository/business"
	paymentRepo "slotwise/database/repository/payment"
	"slotwise/gateway"
	"slotwise/models"
	"slotwise/services/booking"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntentInput carries a create-intent request for a prospective booking.
type IntentInput struct {
	BusinessID    string
	ServiceID     string
	ClientID      string
	EmployeeID    string
	CourtID       string
	ScheduledAt   time.Time
	PaymentMethod string
	ClientNotes   string
}

// IntentResult is what the client needs to complete the charge. No booking
// exists yet at this point.
type IntentResult struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	PaymentMethod   string `json:"paymentMethod"`
}

// Orchestrator obtains gateway payment intents for prospective bookings,
// idempotently, stashing the booking's parameters for later materialization.
type Orchestrator struct {
	Payments     paymentRepo.PaymentRepository
	Businesses   businessRepo.BusinessRepository
	Gateway      gateway.Client
	Materializer *Materializer
	Logger       *zap.Logger
}

// CreateIntent validates the request, opens (or re-opens) the gateway intent,
// and records the Payment and PendingBooking rows. The deterministic
// idempotency key means a retried call reaches the same gateway intent, and
// the unique external payment id means at most one local Payment row exists
// for it. Nothing is written locally until the gateway has answered.
func (o *Orchestrator) CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error) {
	service, err := o.Businesses.GetService(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrServiceNotFound) {
			return nil, &booking.NotFoundError{Entity: "service", ID: in.ServiceID}
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	if service.BusinessID != in.BusinessID {
		return nil, &booking.ValidationError{Message: "service does not belong to business"}
	}
	if service.Price <= 0 {
		return nil, &booking.ValidationError{Message: "service has no price configured"}
	}

	business, err := o.Businesses.GetBusiness(ctx, in.BusinessID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			return nil, &booking.NotFoundError{Entity: "business", ID: in.BusinessID}
		}
		return nil, fmt.Errorf("load business: %w", err)
	}

	linked, err := o.Businesses.IsClientLinked(ctx, in.ClientID, in.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("check client link: %w", err)
	}
	if !linked {
		return nil, &booking.AuthorizationError{Message: "client is not registered with this business"}
	}

	idemKey := IdempotencyKey(in.BusinessID, in.ServiceID, in.ScheduledAt, in.ClientID)

	intent, err := o.Gateway.CreateIntent(ctx, gateway.CreateIntentRequest{
		Amount:         MinorUnits(service.Price),
		Currency:       business.Currency,
		Method:         in.PaymentMethod,
		IdempotencyKey: idemKey,
		// The stash id doubles as the idempotency key so the intent's
		// metadata and the local record agree across retries.
		Metadata: map[string]string{"pending_booking_id": idemKey},
	})
	if err != nil {
		return nil, err
	}

	pending := &models.PendingBooking{
		ID:            idemKey,
		BusinessID:    in.BusinessID,
		ServiceID:     in.ServiceID,
		ClientID:      in.ClientID,
		EmployeeID:    in.EmployeeID,
		CourtID:       in.CourtID,
		ScheduledAt:   in.ScheduledAt,
		PaymentMethod: in.PaymentMethod,
		ClientNotes:   in.ClientNotes,
	}
	if err := o.Payments.CreatePendingBooking(ctx, pending); err != nil {
		return nil, fmt.Errorf("stash pending booking: %w", err)
	}

	payment := &models.Payment{
		ID:                uuid.New().String(),
		ExternalPaymentID: intent.ID,
		BusinessID:        in.BusinessID,
		ClientID:          in.ClientID,
		Amount:            intent.Amount,
		Currency:          intent.Currency,
		Method:            in.PaymentMethod,
		Status:            models.PaymentPending,
		PendingBookingID:  pending.ID,
	}
	stored, inserted, err := o.Payments.CreateIfAbsent(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	if !inserted {
		o.Logger.Info("intent replayed, reusing existing payment",
			zap.String("externalPaymentId", stored.ExternalPaymentID))
	}

	return &IntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		PaymentMethod:   in.PaymentMethod,
	}, nil
}

// MinorUnits converts a business-facing decimal price into gateway minor
// currency units. Half-away-from-zero rounding, applied here and only here,
// keeps every amount the gateway sees consistent.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// IdempotencyKey derives the deterministic key for one logical intent
// request: same client, business, service, and instant always hash alike.
func IdempotencyKey(businessID, serviceID string, scheduledAt time.Time, clientID string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%s",
		businessID, serviceID, scheduledAt.UTC().Format(time.RFC3339), clientID))
	return hex.EncodeToString(sum[:])
}
