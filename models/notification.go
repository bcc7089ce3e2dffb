package models

import "time"

// Notification event kinds dispatched after booking mutations.
const (
	NotifyBookingConfirmed = "booking_confirmed"
	NotifyBookingCancelled = "booking_cancelled"
	NotifyBookingReminder  = "booking_reminder"
)

// NotificationPayload is the body of a best-effort notification task.
type NotificationPayload struct {
	Kind       string    `json:"kind"`
	BookingID  string    `json:"bookingId"`
	ClientID   string    `json:"clientId"`
	BusinessID string    `json:"businessId"`
	When       time.Time `json:"when"`
}

// ReminderPayload is the body of a scheduled reminder task.
type ReminderPayload struct {
	BookingID string `json:"bookingId"`
}
