package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotwise/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll        *mongo.Collection
	pendingColl *mongo.Collection
}

// NewMongoPaymentRepo creates a new PaymentRepository backed by MongoDB.
func NewMongoPaymentRepo(db *mongo.Database) (*MongoPaymentRepo, error) {
	repo := &MongoPaymentRepo{
		coll:        db.Collection("payments"),
		pendingColl: db.Collection("pending_bookings"),
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates the unique index on the gateway payment id. That
// uniqueness anchors idempotency for both intent creation and webhook
// reconciliation.
func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "external_payment_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_external_payment_id"),
		},
		{Keys: bson.D{{Key: "business_id", Value: 1}}, Options: options.Index().SetName("business_idx")},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}

	pendingIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.pendingColl.Indexes().CreateMany(ctx, pendingIndexes); err != nil {
		return fmt.Errorf("failed to create pending booking indexes: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts the payment; if the unique external_payment_id index
// rejects it, the already-present row is fetched and returned instead. The
// boolean reports whether the insert happened.
func (r *MongoPaymentRepo) CreateIfAbsent(ctx context.Context, payment *models.Payment) (*models.Payment, bool, error) {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, gerr := r.GetByExternalID(ctx, payment.ExternalPaymentID)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, true, nil
}

// GetByExternalID retrieves a payment by its gateway payment id.
func (r *MongoPaymentRepo) GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"external_payment_id": externalID}).Decode(&payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment %s: %w", externalID, err)
	}
	return &payment, nil
}

// AttachBooking sets the payment's booking id, but only if it is still unset.
// A matched count of zero means another delivery won the race (or the
// payment does not exist), so the caller treats it as already applied.
func (r *MongoPaymentRepo) AttachBooking(ctx context.Context, externalID, bookingID string) error {
	filter := bson.M{
		"external_payment_id": externalID,
		"$or": bson.A{
			bson.M{"booking_id": bson.M{"$exists": false}},
			bson.M{"booking_id": ""},
		},
	}
	update := bson.M{"$set": bson.M{
		"booking_id": bookingID,
		"status":     models.PaymentSucceeded,
		"updated_at": time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to attach booking to payment %s: %w", externalID, err)
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyAttached
	}
	return nil
}

// SetStatusByExternalID updates the payment's status.
func (r *MongoPaymentRepo) SetStatusByExternalID(ctx context.Context, externalID, status string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"external_payment_id": externalID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set payment status for %s: %w", externalID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePendingBooking stashes the materialization parameters of a deferred
// booking.
func (r *MongoPaymentRepo) CreatePendingBooking(ctx context.Context, pending *models.PendingBooking) error {
	pending.CreatedAt = time.Now()
	if _, err := r.pendingColl.InsertOne(ctx, pending); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil // same stash re-written on an idempotent retry
		}
		return fmt.Errorf("failed to create pending booking: %w", err)
	}
	return nil
}

// GetPendingBooking retrieves a stashed booking's parameters.
func (r *MongoPaymentRepo) GetPendingBooking(ctx context.Context, id string) (*models.PendingBooking, error) {
	var pending models.PendingBooking
	if err := r.pendingColl.FindOne(ctx, bson.M{"id": id}).Decode(&pending); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch pending booking %s: %w", id, err)
	}
	return &pending, nil
}
