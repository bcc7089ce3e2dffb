package models

import "time"

// WebhookEvent records a gateway event delivery for deduplication. EventID is
// the gateway-assigned id; re-delivery of a processed event is a no-op.
type WebhookEvent struct {
	EventID    string    `bson:"event_id" json:"eventId"`
	Type       string    `bson:"type" json:"type"`
	Processed  bool      `bson:"processed" json:"processed"`
	ReceivedAt time.Time `bson:"received_at" json:"receivedAt"`
}
