package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	businessRepo "slotwise/database/repository/business"
	paymentRepo "slotwise/database/repository/payment"
	"slotwise/gateway"
	"slotwise/models"
	"slotwise/services/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	intents     map[string]*gateway.Intent // by idempotency key
	createCalls int
	failCreate  error
	lastReq     gateway.CreateIntentRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: make(map[string]*gateway.Intent)}
}

func (g *fakeGateway) CreateIntent(_ context.Context, req gateway.CreateIntentRequest) (*gateway.Intent, error) {
	g.createCalls++
	g.lastReq = req
	if g.failCreate != nil {
		return nil, g.failCreate
	}
	if in, ok := g.intents[req.IdempotencyKey]; ok {
		return in, nil
	}
	in := &gateway.Intent{
		ID:           fmt.Sprintf("pi_%d", len(g.intents)+1),
		ClientSecret: "secret",
		Status:       "requires_payment_method",
		Amount:       req.Amount,
		Currency:     req.Currency,
	}
	g.intents[req.IdempotencyKey] = in
	return in, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*gateway.Intent, error) {
	for _, in := range g.intents {
		if in.ID == id {
			return in, nil
		}
	}
	return nil, &gateway.Error{Op: "retrieve intent", Err: errors.New("no such intent")}
}

func (g *fakeGateway) VerifyWebhook(_ []byte, _ string) (*gateway.Event, error) {
	return nil, errors.New("not used")
}

type fakePaymentRepo struct {
	payments map[string]*models.Payment // by external id
	pendings map[string]*models.PendingBooking
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: make(map[string]*models.Payment),
		pendings: make(map[string]*models.PendingBooking),
	}
}

func (r *fakePaymentRepo) CreateIfAbsent(_ context.Context, p *models.Payment) (*models.Payment, bool, error) {
	if existing, ok := r.payments[p.ExternalPaymentID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	cp := *p
	r.payments[p.ExternalPaymentID] = &cp
	out := cp
	return &out, true, nil
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
	if _, ok := r.pendings[pending.ID]; ok {
		return nil
	}
	cp := *pending
	r.pendings[pending.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetPendingBooking(_ context.Context, id string) (*models.PendingBooking, error) {
	p, ok := r.pendings[id]
	if !ok {
		return nil, paymentRepo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeBusinessRepo struct {
	businesses map[string]*models.Business
	services   map[string]*models.Service
	links      map[string]bool
}

func (r *fakeBusinessRepo) GetBusiness(_ context.Context, id string) (*models.Business, error) {
	b, ok := r.businesses[id]
	if !ok {
		return nil, businessRepo.ErrBusinessNotFound
	}
	return b, nil
}

func (r *fakeBusinessRepo) GetService(_ context.Context, id string) (*models.Service, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, businessRepo.ErrServiceNotFound
	}
	return s, nil
}

func (r *fakeBusinessRepo) GetResource(_ context.Context, _ string) (*models.Resource, error) {
	return nil, businessRepo.ErrResourceNotFound
}

func (r *fakeBusinessRepo) IsClientLinked(_ context.Context, clientID, businessID string) (bool, error) {
	return r.links[clientID+"/"+businessID], nil
}

// fakeBookingService records creations for materialization tests.
type fakeBookingService struct {
	created   map[string]*models.Booking
	lastInput booking.CreateInput
	createErr error
	createSeq int
}

func newFakeBookingService() *fakeBookingService {
	return &fakeBookingService{created: make(map[string]*models.Booking)}
}

func (s *fakeBookingService) Create(_ context.Context, in booking.CreateInput) (*models.Booking, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.createSeq++
	s.lastInput = in
	b := &models.Booking{
		ID:            fmt.Sprintf("bk_%d", s.createSeq),
		ClientID:      in.ClientID,
		BusinessID:    in.BusinessID,
		ServiceID:     in.ServiceID,
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

var scheduledAt = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestOrchestrator() (*Orchestrator, *fakeGateway, *fakePaymentRepo, *fakeBookingService) {
	gw := newFakeGateway()
	payments := newFakePaymentRepo()
	bookings := newFakeBookingService()
	businesses := &fakeBusinessRepo{
		businesses: map[string]*models.Business{
			"biz-1": {ID: "biz-1", Category: models.CategorySport, Currency: "eur"},
		},
		services: map[string]*models.Service{
			"svc-1": {ID: "svc-1", BusinessID: "biz-1", Price: 150.00},
		},
		links: map[string]bool{"client-1/biz-1": true},
	}

	o := &Orchestrator{
		Payments:   payments,
		Businesses: businesses,
		Gateway:    gw,
		Materializer: &Materializer{
			Payments: payments,
			Bookings: bookings,
			Logger:   zap.NewNop(),
		},
		Logger: zap.NewNop(),
	}
	return o, gw, payments, bookings
}

func TestCreateIntent(t *testing.T) {
	o, gw, payments, _ := newTestOrchestrator()

	res, err := o.CreateIntent(context.Background(), IntentInput{
		BusinessID:    "biz-1",
		ServiceID:     "svc-1",
		ClientID:      "client-1",
		CourtID:       "court-3",
		ScheduledAt:   scheduledAt,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.PaymentIntentID)
	assert.Equal(t, "secret", res.ClientSecret)
	assert.Equal(t, int64(15000), gw.lastReq.Amount, "150.00 eur is 15000 minor units")
	assert.Equal(t, "eur", gw.lastReq.Currency)

	p, err := payments.GetByExternalID(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Empty(t, p.BookingID)

	pending, err := payments.GetPendingBooking(context.Background(), p.PendingBookingID)
	require.NoError(t, err)
	assert.Equal(t, "court-3", pending.CourtID)
	assert.Equal(t, gw.lastReq.Metadata["pending_booking_id"], pending.ID)
}

func TestCreateIntentReplayReusesPayment(t *testing.T) {
	o, gw, payments, _ := newTestOrchestrator()
	in := IntentInput{
		BusinessID:    "biz-1",
		ServiceID:     "svc-1",
		ClientID:      "client-1",
		ScheduledAt:   scheduledAt,
		PaymentMethod: "card",
	}

	first, err := o.CreateIntent(context.Background(), in)
	require.NoError(t, err)
	second, err := o.CreateIntent(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.PaymentIntentID, second.PaymentIntentID)
	assert.Equal(t, 2, gw.createCalls, "retries reach the gateway with the same key")
	assert.Len(t, payments.payments, 1)
	assert.Len(t, payments.pendings, 1)
}

func TestCreateIntentRejections(t *testing.T) {
	o, gw, payments, _ := newTestOrchestrator()

	cases := []struct {
		name string
		in   IntentInput
		want any
	}{
		{
			name: "unknown service",
			in:   IntentInput{BusinessID: "biz-1", ServiceID: "nope", ClientID: "client-1", ScheduledAt: scheduledAt},
			want: new(*booking.NotFoundError),
		},
		{
			name: "service of another business",
			in:   IntentInput{BusinessID: "biz-2", ServiceID: "svc-1", ClientID: "client-1", ScheduledAt: scheduledAt},
			want: new(*booking.ValidationError),
		},
		{
			name: "unlinked client",
			in:   IntentInput{BusinessID: "biz-1", ServiceID: "svc-1", ClientID: "stranger", ScheduledAt: scheduledAt},
			want: new(*booking.AuthorizationError),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.CreateIntent(context.Background(), tc.in)
			assert.ErrorAs(t, err, tc.want)
		})
	}

	assert.Zero(t, gw.createCalls, "rejected requests must not reach the gateway")
	assert.Empty(t, payments.payments)
}

func TestCreateIntentGatewayFailureWritesNothing(t *testing.T) {
	o, gw, payments, _ := newTestOrchestrator()
	gw.failCreate = &gateway.Error{Op: "create intent", Err: errors.New("upstream 500")}

	_, err := o.CreateIntent(context.Background(), IntentInput{
		BusinessID:  "biz-1",
		ServiceID:   "svc-1",
		ClientID:    "client-1",
		ScheduledAt: scheduledAt,
	})
	var gwErr *gateway.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Empty(t, payments.payments)
	assert.Empty(t, payments.pendings)
}

func TestIdempotencyKeyDeterministic(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	k1 := IdempotencyKey("biz-1", "svc-1", at, "client-1")
	k2 := IdempotencyKey("biz-1", "svc-1", at.In(time.FixedZone("UTC+2", 7200)), "client-1")
	assert.Equal(t, k1, k2, "key is timezone independent")

	k3 := IdempotencyKey("biz-1", "svc-1", at.Add(time.Hour), "client-1")
	assert.NotEqual(t, k1, k3)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(15000), MinorUnits(150.00))
	assert.Equal(t, int64(1999), MinorUnits(19.99))
	assert.Equal(t, int64(1), MinorUnits(0.005))
}

func TestMaterialize(t *testing.T) {
	o, _, payments, bookings := newTestOrchestrator()

	res, err := o.CreateIntent(context.Background(), IntentInput{
		BusinessID:    "biz-1",
		ServiceID:     "svc-1",
		ClientID:      "client-1",
		CourtID:       "court-3",
		ScheduledAt:   scheduledAt,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	b, err := o.Materializer.Materialize(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.True(t, bookings.lastInput.Paid)
	assert.Equal(t, "court-3", bookings.lastInput.CourtID)
	assert.Equal(t, models.BookingPaymentPaid, b.PaymentStatus)

	p, err := payments.GetByExternalID(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, p.BookingID)
	assert.Equal(t, models.PaymentSucceeded, p.Status)

	// A second delivery returns the same booking without a second create.
	again, err := o.Materializer.Materialize(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)
	assert.Equal(t, 1, bookings.createSeq)
}

func TestMaterializeUnknownPayment(t *testing.T) {
	o, _, _, _ := newTestOrchestrator()

	_, err := o.Materializer.Materialize(context.Background(), "pi_unknown")
	var notFound *booking.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "payment", notFound.Entity)
}

func TestMaterializeLostRaceDefersToAttachedBooking(t *testing.T) {
	o, _, payments, bookings := newTestOrchestrator()

	res, err := o.CreateIntent(context.Background(), IntentInput{
		BusinessID:  "biz-1",
		ServiceID:   "svc-1",
		ClientID:    "client-1",
		ScheduledAt: scheduledAt,
	})
	require.NoError(t, err)

	// A concurrent delivery materialized and attached first; this run read
	// the payment before that happened.
	winner, err := bookings.Create(context.Background(), booking.CreateInput{
		ClientID: "client-1", BusinessID: "biz-1", ServiceID: "svc-1", ScheduledAt: scheduledAt, Paid: true,
	})
	require.NoError(t, err)
	require.NoError(t, payments.AttachBooking(context.Background(), res.PaymentIntentID, winner.ID))

	got, err := o.Materializer.Materialize(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
}

func TestConfirm(t *testing.T) {
	o, gw, _, _ := newTestOrchestrator()

	res, err := o.CreateIntent(context.Background(), IntentInput{
		BusinessID:  "biz-1",
		ServiceID:   "svc-1",
		ClientID:    "client-1",
		ScheduledAt: scheduledAt,
	})
	require.NoError(t, err)

	t.Run("rejects an unsettled intent", func(t *testing.T) {
		_, err := o.Confirm(context.Background(), res.PaymentIntentID)
		var validation *booking.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("materializes a settled intent", func(t *testing.T) {
		for _, in := range gw.intents {
			in.Status = "succeeded"
		}
		b, err := o.Confirm(context.Background(), res.PaymentIntentID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, b.Status)
	})
}
