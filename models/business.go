package models

import "time"

// Business categories. Categories in the consent-required set force new
// bookings into PENDING_CONSENT until a signed consent form is attached.
const (
	CategoryGeneral       = "GENERAL"
	CategoryMedical       = "MEDICAL"
	CategoryDental        = "DENTAL"
	CategoryPhysiotherapy = "PHYSIOTHERAPY"
	CategoryPsychology    = "PSYCHOLOGY"
	CategorySport         = "SPORT"
)

// Business is a tenant selling time-boxed appointments (or courts, for sport
// venues).
type Business struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Category  string    `bson:"category" json:"category"`
	Suspended bool      `bson:"suspended" json:"suspended"`
	Currency  string    `bson:"currency" json:"currency"` // ISO 4217, lowercase
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Service is a bookable offering of a business. Price is stored in
// business-facing decimal units.
type Service struct {
	ID              string  `bson:"id" json:"id"`
	BusinessID      string  `bson:"business_id" json:"businessId"`
	Name            string  `bson:"name" json:"name"`
	Price           float64 `bson:"price" json:"price"`
	DurationMinutes int     `bson:"duration_minutes" json:"durationMinutes"`
}

// Resource is a bookable unit of a business: an employee or, for sport
// venues, a court. Its schedule and price tiers feed the availability
// calculator.
type Resource struct {
	ID         string       `bson:"id" json:"id"`
	BusinessID string       `bson:"business_id" json:"businessId"`
	Name       string       `bson:"name" json:"name"`
	Type       string       `bson:"type" json:"type"` // "employee" | "court"
	Schedule   WeekSchedule `bson:"schedule" json:"schedule"`
	Tiers      []PriceTier  `bson:"tiers,omitempty" json:"tiers,omitempty"`
	BasePrice  float64      `bson:"base_price" json:"basePrice"` // hourly price when no tier matches
}

// ClientLink records that a client is registered with a business; intent
// creation requires it as an authorization precondition.
type ClientLink struct {
	ClientID   string    `bson:"client_id" json:"clientId"`
	BusinessID string    `bson:"business_id" json:"businessId"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}
