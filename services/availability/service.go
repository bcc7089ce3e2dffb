package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingRepo "slotwise/database/repository/booking"
	businessRepo "slotwise/database/repository/business"
	"slotwise/models"
	"slotwise/services/booking"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheTTL = 60 * time.Second

// Result is the availability of one resource on one date, plus the pricing
// tiers the client needs to render the picker.
type Result struct {
	Available []models.AvailabilitySlot `json:"available"`
	Pricing   []models.PriceTier        `json:"pricing"`
}

// Service computes resource availability for the HTTP surface, with a short
// Redis cache in front of the repositories.
type Service struct {
	Bookings   bookingRepo.BookingRepository
	Businesses businessRepo.BusinessRepository
	Cache      *redis.Client
	Logger     *zap.Logger
}

// ForResource returns the hourly slots for a resource and date.
func (s *Service) ForResource(ctx context.Context, resourceID string, date time.Time) (*Result, error) {
	cacheKey := fmt.Sprintf("availability:%s:%s", resourceID, date.Format("2006-01-02"))
	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var res Result
			if err := json.Unmarshal([]byte(cached), &res); err == nil {
				return &res, nil
			}
		}
	}

	resource, err := s.Businesses.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrResourceNotFound) {
			return nil, &booking.NotFoundError{Entity: "resource", ID: resourceID}
		}
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	bookings, err := s.Bookings.ListByResourceDay(ctx, resourceID, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	res := &Result{
		Available: Compute(date, resource.Schedule, bookings, resource.Tiers, resource.BasePrice),
		Pricing:   resource.Tiers,
	}

	if s.Cache != nil {
		if data, err := json.Marshal(res); err == nil {
			if err := s.Cache.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
				s.Logger.Warn("availability cache write failed", zap.Error(err))
			}
		}
	}
	return res, nil
}
