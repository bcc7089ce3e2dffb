package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB. It owns both
// the bookings and consent_forms collections so cancellation can delete them
// in one transaction.
type MongoBookingRepo struct {
	coll        *mongo.Collection
	consentColl *mongo.Collection
}

// NewMongoBookingRepo creates a new BookingRepository backed by MongoDB.
func NewMongoBookingRepo(db *mongo.Database) (*MongoBookingRepo, error) {
	repo := &MongoBookingRepo{
		coll:        db.Collection("bookings"),
		consentColl: db.Collection("consent_forms"),
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates the indexes the engine's correctness depends on.
// Cancelled bookings are hard-deleted, so the plain unique index on
// (resource_key, slot_key) is exactly the "no two non-cancelled bookings per
// slot" invariant.
func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
		{
			Keys:    bson.D{{Key: "resource_key", Value: 1}, {Key: "slot_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_resource_slot"),
		},
		{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "scheduled_at", Value: 1}}, Options: options.Index().SetName("business_date_idx")},
		{Keys: bson.D{{Key: "client_id", Value: 1}}, Options: options.Index().SetName("client_idx")},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	consentIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetName("booking_idx")},
	}
	if _, err := r.consentColl.Indexes().CreateMany(ctx, consentIndexes); err != nil {
		return fmt.Errorf("failed to create consent form indexes: %w", err)
	}
	return nil
}
