package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	paymentRepo "slotwise/database/repository/payment"
	subscriptionRepo "slotwise/database/repository/subscription"
	"slotwise/gateway"
	"slotwise/models"
	"slotwise/services/booking"
	"slotwise/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validSignature = "t=1,v1=good"

// fakeGateway decodes the payload itself as the event, accepting only the
// canned signature.
type fakeGateway struct{}

func (g *fakeGateway) CreateIntent(_ context.Context, _ gateway.CreateIntentRequest) (*gateway.Intent, error) {
	return nil, errors.New("not used")
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, _ string) (*gateway.Intent, error) {
	return nil, errors.New("not used")
}

func (g *fakeGateway) VerifyWebhook(payload []byte, signature string) (*gateway.Event, error) {
	if signature != validSignature {
		return nil, &gateway.BadSignatureError{Err: errors.New("signature mismatch")}
	}
	var ev gateway.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, &gateway.BadSignatureError{Err: err}
	}
	return &ev, nil
}

type fakeEventRepo struct {
	processed map[string]string // event id -> type
	lookupErr error
}

func (r *fakeEventRepo) IsProcessed(_ context.Context, eventID string) (bool, error) {
	if r.lookupErr != nil {
		return false, r.lookupErr
	}
	_, ok := r.processed[eventID]
	return ok, nil
}

func (r *fakeEventRepo) MarkProcessed(_ context.Context, eventID, eventType string) error {
	r.processed[eventID] = eventType
	return nil
}

type fakePaymentRepo struct {
	payments map[string]*models.Payment
	pendings map[string]*models.PendingBooking
}

func (r *fakePaymentRepo) CreateIfAbsent(_ context.Context, p *models.Payment) (*models.Payment, bool, error) {
	if existing, ok := r.payments[p.ExternalPaymentID]; ok {
		return existing, false, nil
	}
	cp := *p
	r.payments[p.ExternalPaymentID] = &cp
	return &cp, true, nil
}

func (r *fakePaymentRepo) GetByExternalID(_ context.Context, externalID string) (*models.Payment, error) {
	p, ok := r.payments[externalID]
	if !ok {
		return nil, paymentRepo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) AttachBooking(_ context.Context, externalID, bookingID string) error {
	p, ok := r.payments[externalID]
	if !ok {
		return paymentRepo.ErrNotFound
	}
	if p.BookingID != "" {
		return paymentRepo.ErrAlreadyAttached
	}
	p.BookingID = bookingID
	p.Status = models.PaymentSucceeded
	return nil
}

func (r *fakePaymentRepo) SetStatusByExternalID(_ context.Context, externalID, status string) error {
	p, ok := r.payments[externalID]
	if !ok {
		return paymentRepo.ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *fakePaymentRepo) CreatePendingBooking(_ context.Context, pending *models.PendingBooking) error {
	cp := *pending
	r.pendings[pending.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetPendingBooking(_ context.Context, id string) (*models.PendingBooking, error) {
	p, ok := r.pendings[id]
	if !ok {
		return nil, paymentRepo.ErrNotFound
	}
	return p, nil
}

type fakeSubscriptionRepo struct {
	subs map[string]*models.Subscription
}

func (r *fakeSubscriptionRepo) GetByExternalID(_ context.Context, externalID string) (*models.Subscription, error) {
	s, ok := r.subs[externalID]
	if !ok {
		return nil, subscriptionRepo.ErrNotFound
	}
	return s, nil
}

func (r *fakeSubscriptionRepo) UpdateFromGateway(_ context.Context, externalID, status string, periodEnd time.Time) error {
	s, ok := r.subs[externalID]
	if !ok {
		s = &models.Subscription{ExternalSubscriptionID: externalID}
		r.subs[externalID] = s
	}
	s.Status = status
	s.CurrentPeriodEnd = periodEnd
	return nil
}

func (r *fakeSubscriptionRepo) SetStatus(_ context.Context, externalID, status string) error {
	s, ok := r.subs[externalID]
	if !ok {
		return subscriptionRepo.ErrNotFound
	}
	s.Status = status
	return nil
}

type fakeBookingService struct {
	created   map[string]*models.Booking
	createErr error
	seq       int
}

func (s *fakeBookingService) Create(_ context.Context, in booking.CreateInput) (*models.Booking, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.seq++
	b := &models.Booking{
		ID:            fmt.Sprintf("bk_%d", s.seq),
		ClientID:      in.ClientID,
		BusinessID:    in.BusinessID,
		ScheduledAt:   in.ScheduledAt,
		Status:        models.BookingConfirmed,
		PaymentStatus: models.BookingPaymentPaid,
	}
	s.created[b.ID] = b
	return b, nil
}

func (s *fakeBookingService) Cancel(_ context.Context, _ string) error { return nil }

func (s *fakeBookingService) AttachConsent(_ context.Context, _, _ string) (*models.Booking, error) {
	return nil, errors.New("not used")
}

func (s *fakeBookingService) GetByID(_ context.Context, id string) (*models.Booking, error) {
	b, ok := s.created[id]
	if !ok {
		return nil, &booking.NotFoundError{Entity: "booking", ID: id}
	}
	return b, nil
}

func (s *fakeBookingService) ListForBusiness(_ context.Context, _ string, _ time.Time) ([]models.Booking, error) {
	return nil, nil
}

func newTestProcessor() (*Processor, *fakeEventRepo, *fakePaymentRepo, *fakeSubscriptionRepo, *fakeBookingService) {
	events := &fakeEventRepo{processed: make(map[string]string)}
	payments := &fakePaymentRepo{
		payments: make(map[string]*models.Payment),
		pendings: make(map[string]*models.PendingBooking),
	}
	subs := &fakeSubscriptionRepo{subs: make(map[string]*models.Subscription)}
	bookings := &fakeBookingService{created: make(map[string]*models.Booking)}

	p := &Processor{
		Gateway:       &fakeGateway{},
		Events:        events,
		Payments:      payments,
		Subscriptions: subs,
		Materializer: &payment.Materializer{
			Payments: payments,
			Bookings: bookings,
			Logger:   zap.NewNop(),
		},
		Logger: zap.NewNop(),
	}
	return p, events, payments, subs, bookings
}

func eventPayload(t *testing.T, id, eventType string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	b, err := json.Marshal(map[string]any{"ID": id, "Type": eventType, "Data": json.RawMessage(raw)})
	require.NoError(t, err)
	return b
}

func seedPaidIntent(payments *fakePaymentRepo) {
	payments.pendings["stash-1"] = &models.PendingBooking{
		ID:          "stash-1",
		BusinessID:  "biz-1",
		ServiceID:   "svc-1",
		ClientID:    "client-1",
		ScheduledAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	payments.payments["pi_1"] = &models.Payment{
		ID:                "pay-1",
		ExternalPaymentID: "pi_1",
		Status:            models.PaymentPending,
		PendingBookingID:  "stash-1",
	}
}

func TestProcessPaymentSucceeded(t *testing.T) {
	p, events, payments, _, bookings := newTestProcessor()
	seedPaidIntent(payments)

	payload := eventPayload(t, "evt_1", "payment_intent.succeeded", map[string]string{"id": "pi_1"})
	require.NoError(t, p.Process(context.Background(), payload, validSignature))

	stored := payments.payments["pi_1"]
	assert.NotEmpty(t, stored.BookingID)
	assert.Equal(t, models.PaymentSucceeded, stored.Status)
	assert.Equal(t, 1, bookings.seq)
	assert.Contains(t, events.processed, "evt_1")
}

func TestProcessDuplicateDeliveryIsNoop(t *testing.T) {
	p, _, payments, _, bookings := newTestProcessor()
	seedPaidIntent(payments)

	payload := eventPayload(t, "evt_1", "payment_intent.succeeded", map[string]string{"id": "pi_1"})
	require.NoError(t, p.Process(context.Background(), payload, validSignature))
	require.NoError(t, p.Process(context.Background(), payload, validSignature))

	assert.Equal(t, 1, bookings.seq, "a redelivered event must not create a second booking")
}

func TestProcessSameIntentDifferentEventIDs(t *testing.T) {
	// Stripe can emit payment_intent.succeeded and checkout.session.completed
	// for one charge; the per-payment layer must absorb the second.
	p, events, payments, _, bookings := newTestProcessor()
	seedPaidIntent(payments)

	first := eventPayload(t, "evt_1", "payment_intent.succeeded", map[string]string{"id": "pi_1"})
	second := eventPayload(t, "evt_2", "checkout.session.completed", map[string]string{"payment_intent": "pi_1"})
	require.NoError(t, p.Process(context.Background(), first, validSignature))
	require.NoError(t, p.Process(context.Background(), second, validSignature))

	assert.Equal(t, 1, bookings.seq)
	assert.Len(t, events.processed, 2)
}

func TestProcessBadSignature(t *testing.T) {
	p, events, _, _, _ := newTestProcessor()

	err := p.Process(context.Background(), []byte(`{}`), "t=1,v1=forged")
	var bad *gateway.BadSignatureError
	require.ErrorAs(t, err, &bad)
	assert.Empty(t, events.processed)
}

func TestProcessUnknownPaymentAcks(t *testing.T) {
	p, events, _, _, bookings := newTestProcessor()

	payload := eventPayload(t, "evt_9", "payment_intent.succeeded", map[string]string{"id": "pi_other_server"})
	require.NoError(t, p.Process(context.Background(), payload, validSignature))

	assert.Zero(t, bookings.seq)
	assert.Contains(t, events.processed, "evt_9", "foreign intents are acked, not retried")
}

func TestProcessPermanentEffectErrorAcks(t *testing.T) {
	p, events, payments, _, bookings := newTestProcessor()
	seedPaidIntent(payments)
	bookings.createErr = &booking.ConflictError{Message: "slot is already booked"}

	payload := eventPayload(t, "evt_1", "payment_intent.succeeded", map[string]string{"id": "pi_1"})
	require.NoError(t, p.Process(context.Background(), payload, validSignature))
	assert.Contains(t, events.processed, "evt_1")
}

func TestProcessTransientStoreErrorRetries(t *testing.T) {
	p, events, _, _, _ := newTestProcessor()
	events.lookupErr = errors.New("mongo unavailable")

	payload := eventPayload(t, "evt_1", "payment_intent.succeeded", map[string]string{"id": "pi_1"})
	err := p.Process(context.Background(), payload, validSignature)
	require.Error(t, err)
	assert.Empty(t, events.processed)
}

func TestProcessSubscriptionEvents(t *testing.T) {
	p, _, _, subs, _ := newTestProcessor()
	periodEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	updated := eventPayload(t, "evt_1", "customer.subscription.updated", map[string]any{
		"id":                 "sub_1",
		"status":             models.SubscriptionPastDue,
		"current_period_end": periodEnd.Unix(),
	})
	require.NoError(t, p.Process(context.Background(), updated, validSignature))
	require.Contains(t, subs.subs, "sub_1")
	assert.Equal(t, models.SubscriptionPastDue, subs.subs["sub_1"].Status)
	assert.True(t, periodEnd.Equal(subs.subs["sub_1"].CurrentPeriodEnd))

	// A deleted delivery forces the terminal status no matter what the
	// payload claims.
	deleted := eventPayload(t, "evt_2", "customer.subscription.deleted", map[string]any{
		"id":     "sub_1",
		"status": models.SubscriptionActive,
	})
	require.NoError(t, p.Process(context.Background(), deleted, validSignature))
	assert.Equal(t, models.SubscriptionCanceled, subs.subs["sub_1"].Status)
}

func TestProcessPaymentFailed(t *testing.T) {
	p, events, payments, _, _ := newTestProcessor()
	seedPaidIntent(payments)

	payload := eventPayload(t, "evt_1", "payment_intent.payment_failed", map[string]string{"id": "pi_1"})
	require.NoError(t, p.Process(context.Background(), payload, validSignature))
	assert.Equal(t, models.PaymentFailed, payments.payments["pi_1"].Status)

	// Failure for a payment this server never opened still acks.
	unknown := eventPayload(t, "evt_2", "payment_intent.payment_failed", map[string]string{"id": "pi_ghost"})
	require.NoError(t, p.Process(context.Background(), unknown, validSignature))
	assert.Contains(t, events.processed, "evt_2")
}

func TestProcessInvoiceFailed(t *testing.T) {
	p, _, _, subs, _ := newTestProcessor()
	subs.subs["sub_1"] = &models.Subscription{
		ExternalSubscriptionID: "sub_1",
		Status:                 models.SubscriptionActive,
	}

	payload := eventPayload(t, "evt_1", "invoice.payment_failed", map[string]string{"subscription": "sub_1"})
	require.NoError(t, p.Process(context.Background(), payload, validSignature))
	assert.Equal(t, models.SubscriptionPastDue, subs.subs["sub_1"].Status)
}

func TestProcessIgnoresUnhandledTypes(t *testing.T) {
	p, events, _, _, _ := newTestProcessor()

	payload := eventPayload(t, "evt_1", "charge.refunded", map[string]string{"id": "ch_1"})
	require.NoError(t, p.Process(context.Background(), payload, validSignature))
	assert.Contains(t, events.processed, "evt_1")
}
