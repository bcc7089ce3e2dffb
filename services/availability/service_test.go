package availability

import (
	"context"
	"testing"
	"time"

	bookingRepo "slotwise/database/repository/booking"
	businessRepo "slotwise/database/repository/business"
	"slotwise/models"
	"slotwise/services/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubBookingRepo struct {
	byResource map[string][]models.Booking
}

func (r *stubBookingRepo) Create(_ context.Context, _ *models.Booking) error { return nil }

func (r *stubBookingRepo) GetByID(_ context.Context, _ string) (*models.Booking, error) {
	return nil, bookingRepo.ErrNotFound
}

func (r *stubBookingRepo) ListByResourceDay(_ context.Context, resourceKey string, _, _ time.Time) ([]models.Booking, error) {
	return r.byResource[resourceKey], nil
}

func (r *stubBookingRepo) ListByBusinessDay(_ context.Context, _ string, _, _ time.Time) ([]models.Booking, error) {
	return nil, nil
}

func (r *stubBookingRepo) AttachConsent(_ context.Context, _ string, _ *models.ConsentForm) (*models.Booking, error) {
	return nil, bookingRepo.ErrNotFound
}

func (r *stubBookingRepo) DeleteWithConsent(_ context.Context, _ string) error {
	return bookingRepo.ErrNotFound
}

func (r *stubBookingRepo) MarkReminderSent(_ context.Context, _ string, _ time.Time) error {
	return bookingRepo.ErrNotFound
}

func (r *stubBookingRepo) SetPaymentStatus(_ context.Context, _, _ string) error {
	return bookingRepo.ErrNotFound
}

type stubBusinessRepo struct {
	resources map[string]*models.Resource
}

func (r *stubBusinessRepo) GetBusiness(_ context.Context, _ string) (*models.Business, error) {
	return nil, businessRepo.ErrBusinessNotFound
}

func (r *stubBusinessRepo) GetService(_ context.Context, _ string) (*models.Service, error) {
	return nil, businessRepo.ErrServiceNotFound
}

func (r *stubBusinessRepo) GetResource(_ context.Context, id string) (*models.Resource, error) {
	res, ok := r.resources[id]
	if !ok {
		return nil, businessRepo.ErrResourceNotFound
	}
	return res, nil
}

func (r *stubBusinessRepo) IsClientLinked(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func TestForResource(t *testing.T) {
	svc := &Service{
		Bookings: &stubBookingRepo{
			byResource: map[string][]models.Booking{
				"court-1": {{ScheduledAt: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)}},
			},
		},
		Businesses: &stubBusinessRepo{
			resources: map[string]*models.Resource{
				"court-1": {
					ID:        "court-1",
					Type:      "court",
					Schedule:  courtSchedule(),
					Tiers:     []models.PriceTier{{StartHour: 14, EndHour: 17, Price: 35, Label: "peak"}},
					BasePrice: 20,
				},
			},
		},
		Logger: zap.NewNop(),
	}

	res, err := svc.ForResource(context.Background(), "court-1", wednesday)
	require.NoError(t, err)
	require.Len(t, res.Available, 6)
	assert.False(t, res.Available[0].Available, "the 9h slot is booked")
	assert.True(t, res.Available[1].Available)
	assert.Equal(t, svc.Businesses.(*stubBusinessRepo).resources["court-1"].Tiers, res.Pricing)
}

func TestForResourceNotFound(t *testing.T) {
	svc := &Service{
		Bookings:   &stubBookingRepo{},
		Businesses: &stubBusinessRepo{resources: map[string]*models.Resource{}},
		Logger:     zap.NewNop(),
	}

	_, err := svc.ForResource(context.Background(), "missing", wednesday)
	var notFound *booking.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "resource", notFound.Entity)
}
