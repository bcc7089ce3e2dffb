package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingRepo "slotwise/database/repository/booking"
	"slotwise/models"
	"slotwise/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Sender is the outbound notification collaborator (push/SMS/email dispatch
// lives outside this server). LogSender is the default when none is wired.
type Sender interface {
	Send(ctx context.Context, payload models.NotificationPayload) error
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the would-be notification.
func (s *LogSender) Send(_ context.Context, payload models.NotificationPayload) error {
	s.Logger.Info("notification",
		zap.String("kind", payload.Kind),
		zap.String("bookingId", payload.BookingID),
		zap.String("clientId", payload.ClientID))
	return nil
}

// Worker runs the asynq server consuming notification and reminder tasks.
type Worker struct {
	Bookings bookingRepo.BookingRepository
	Sender   Sender
	Logger   *zap.Logger

	srv *asynq.Server
}

// Start launches the asynq server in the background.
func (w *Worker) Start(redisOpts asynq.RedisClientOpt) {
	w.srv = asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeNotificationSend, w.handleNotification)
	mux.HandleFunc(notification.TypeReminderSend, w.handleReminder)

	go func() {
		w.Logger.Info("starting task worker")
		if err := w.srv.Run(mux); err != nil {
			w.Logger.Error("task worker stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the asynq server.
func (w *Worker) Shutdown() {
	if w.srv != nil {
		w.srv.Shutdown()
	}
}

func (w *Worker) handleNotification(ctx context.Context, t *asynq.Task) error {
	var payload models.NotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode notification payload: %w", err)
	}
	if err := w.Sender.Send(ctx, payload); err != nil {
		// Best effort: a failed send is logged, never retried into a storm.
		w.Logger.Warn("notification send failed",
			zap.String("kind", payload.Kind),
			zap.String("bookingId", payload.BookingID),
			zap.Error(err))
	}
	return nil
}

// handleReminder stamps the dispatch time on the booking before sending, so
// the cancellation policy's grace window measures from a recorded instant.
func (w *Worker) handleReminder(ctx context.Context, t *asynq.Task) error {
	var payload models.ReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode reminder payload: %w", err)
	}

	booked, err := w.Bookings.GetByID(ctx, payload.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			// Cancelled since scheduling; nothing to remind.
			return nil
		}
		return err
	}
	if booked.ReminderSentAt != nil {
		return nil
	}

	now := time.Now()
	if err := w.Bookings.MarkReminderSent(ctx, booked.ID, now); err != nil && !errors.Is(err, bookingRepo.ErrNotFound) {
		return err
	}

	if err := w.Sender.Send(ctx, models.NotificationPayload{
		Kind:       models.NotifyBookingReminder,
		BookingID:  booked.ID,
		ClientID:   booked.ClientID,
		BusinessID: booked.BusinessID,
		When:       booked.ScheduledAt,
	}); err != nil {
		w.Logger.Warn("reminder send failed", zap.String("bookingId", booked.ID), zap.Error(err))
	}
	return nil
}
