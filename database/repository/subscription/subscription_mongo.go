package subscriptionRepo

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

// ErrNotFound is returned when no subscription matches the query.
var ErrNotFound = errors.New("subscription not found")

// SubscriptionRepository defines the interface for subscription data access.
type SubscriptionRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Subscription, error)
	// UpdateFromGateway applies the status and period reported by a webhook
	// delivery. Upserts so out-of-order created/updated deliveries converge.
	UpdateFromGateway(ctx context.Context, externalID, status string, periodEnd time.Time) error
	SetStatus(ctx context.Context, externalID, status string) error
}

// MongoSubscriptionRepo implements SubscriptionRepository using MongoDB.
type MongoSubscriptionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepo creates a new SubscriptionRepository backed by
// MongoDB.
func NewMongoSubscriptionRepo(db *mongo.Database) (*MongoSubscriptionRepo, error) {
	repo := &MongoSubscriptionRepo{coll: db.Collection("subscriptions")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoSubscriptionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_subscription_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_external_subscription_id"),
		},
		{Keys: bson.D{{Key: "business_id", Value: 1}}, Options: options.Index().SetName("business_idx")},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}
	return nil
}

// GetByExternalID retrieves a subscription by its gateway id.
func (r *MongoSubscriptionRepo) GetByExternalID(ctx context.Context, externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.coll.FindOne(ctx, bson.M{"external_subscription_id": externalID}).Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch subscription %s: %w", externalID, err)
	}
	return &sub, nil
}

// UpdateFromGateway applies gateway-reported status and period end.
func (r *MongoSubscriptionRepo) UpdateFromGateway(ctx context.Context, externalID, status string, periodEnd time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"external_subscription_id": externalID},
		bson.M{"$set": bson.M{
			"status":             status,
			"current_period_end": periodEnd,
			"updated_at":         time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", externalID, err)
	}
	return nil
}

// SetStatus updates only the subscription status.
func (r *MongoSubscriptionRepo) SetStatus(ctx context.Context, externalID, status string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"external_subscription_id": externalID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set subscription status for %s: %w", externalID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
