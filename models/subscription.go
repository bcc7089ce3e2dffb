package models

import "time"

// Subscription statuses (gateway vocabulary).
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription tracks a business's plan subscription at the gateway. Webhook
// deliveries drive Status and CurrentPeriodEnd; booking state is never
// touched from here.
type Subscription struct {
	ID                     string    `bson:"id" json:"id"`
	BusinessID             string    `bson:"business_id" json:"businessId"`
	ExternalSubscriptionID string    `bson:"external_subscription_id" json:"externalSubscriptionId"`
	Status                 string    `bson:"status" json:"status"`
	CurrentPeriodEnd       time.Time `bson:"current_period_end" json:"currentPeriodEnd"`
	UpdatedAt              time.Time `bson:"updated_at" json:"updatedAt"`
}
