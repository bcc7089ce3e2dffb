package webhookEventRepo

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

// WebhookEventRepository tracks processed gateway events for deduplication.
type WebhookEventRepository interface {
	// IsProcessed reports whether the event id was already handled.
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed records the event as handled. Upserts, so re-marking a
	// processed event is harmless.
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

// MongoWebhookEventRepo implements WebhookEventRepository using MongoDB.
type MongoWebhookEventRepo struct {
	coll *mongo.Collection
}

// NewMongoWebhookEventRepo creates a new WebhookEventRepository backed by
// MongoDB.
func NewMongoWebhookEventRepo(db *mongo.Database) (*MongoWebhookEventRepo, error) {
	repo := &MongoWebhookEventRepo{coll: db.Collection("webhook_events")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoWebhookEventRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_event_id"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create webhook event indexes: %w", err)
	}
	return nil
}

// IsProcessed reports whether the event id was already handled.
func (r *MongoWebhookEventRepo) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var ev models.WebhookEvent
	err := r.coll.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&ev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up webhook event %s: %w", eventID, err)
	}
	return ev.Processed, nil
}

// MarkProcessed upserts the processed flag for the event id.
func (r *MongoWebhookEventRepo) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"event_id": eventID},
		bson.M{"$set": bson.M{
			"type":        eventType,
			"processed":   true,
			"received_at": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to mark webhook event %s processed: %w", eventID, err)
	}
	return nil
}
