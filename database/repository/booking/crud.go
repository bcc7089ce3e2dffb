package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotwise/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Create inserts a new booking document. A duplicate on the
// (resource_key, slot_key) index surfaces as ErrDuplicateSlot.
func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its unique id.
func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

// ListByResourceDay returns the bookings holding slots for one resource on
// one day. Every stored booking is non-cancelled.
func (r *MongoBookingRepo) ListByResourceDay(ctx context.Context, resourceKey string, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"resource_key": resourceKey,
		"scheduled_at": bson.M{"$gte": dayStart, "$lt": dayEnd},
	}
	return r.list(ctx, filter)
}

// ListByBusinessDay returns all of a business's bookings for one day.
func (r *MongoBookingRepo) ListByBusinessDay(ctx context.Context, businessID string, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"business_id":  businessID,
		"scheduled_at": bson.M{"$gte": dayStart, "$lt": dayEnd},
	}
	return r.list(ctx, filter)
}

func (r *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// MarkReminderSent stamps the reminder dispatch time on a booking.
func (r *MongoBookingRepo) MarkReminderSent(ctx context.Context, bookingID string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": bookingID},
		bson.M{"$set": bson.M{"reminder_sent_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent for %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPaymentStatus updates the payment status carried on the booking.
func (r *MongoBookingRepo) SetPaymentStatus(ctx context.Context, bookingID, paymentStatus string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": bookingID},
		bson.M{"$set": bson.M{"payment_status": paymentStatus}},
	)
	if err != nil {
		return fmt.Errorf("failed to set payment status for %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
