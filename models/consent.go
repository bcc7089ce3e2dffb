package models

import "time"

// ConsentForm is a signed consent artifact attached to a booking. It is
// deleted in the same transaction as its booking on cancellation.
type ConsentForm struct {
	ID        string    `bson:"id" json:"id"`
	BookingID string    `bson:"booking_id" json:"bookingId"`
	ClientID  string    `bson:"client_id" json:"clientId"`
	SignedAt  time.Time `bson:"signed_at" json:"signedAt"`
}
