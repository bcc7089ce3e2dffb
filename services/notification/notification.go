package notification

import (
	"context"
	"encoding/json"
	"time"

	"slotwise/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task type names shared with the worker.
const (
	TypeNotificationSend = "notification:send"
	TypeReminderSend     = "reminder:send"
)

// Service dispatches best-effort notifications and schedules reminders. No
// method returns an error: a failed dispatch is logged and must never fail
// or roll back the booking mutation that triggered it.
type Service interface {
	Dispatch(ctx context.Context, payload models.NotificationPayload)
	ScheduleReminder(ctx context.Context, bookingID string, fireAt time.Time)
}

// AsynqNotifier enqueues notification tasks on the shared Redis queue. The
// worker consumes them out of band.
type AsynqNotifier struct {
	Client *asynq.Client
	Logger *zap.Logger
}

// Dispatch enqueues a notification task, logging and swallowing failures.
func (n *AsynqNotifier) Dispatch(ctx context.Context, payload models.NotificationPayload) {
	b, err := json.Marshal(payload)
	if err != nil {
		n.Logger.Error("failed to marshal notification payload", zap.Error(err))
		return
	}
	if _, err := n.Client.EnqueueContext(ctx, asynq.NewTask(TypeNotificationSend, b)); err != nil {
		n.Logger.Warn("failed to enqueue notification",
			zap.String("kind", payload.Kind),
			zap.String("bookingId", payload.BookingID),
			zap.Error(err))
	}
}

// ScheduleReminder enqueues a reminder task to fire at the given instant.
func (n *AsynqNotifier) ScheduleReminder(ctx context.Context, bookingID string, fireAt time.Time) {
	b, err := json.Marshal(models.ReminderPayload{BookingID: bookingID})
	if err != nil {
		n.Logger.Error("failed to marshal reminder payload", zap.Error(err))
		return
	}
	task := asynq.NewTask(TypeReminderSend, b)
	if _, err := n.Client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt)); err != nil {
		n.Logger.Warn("failed to schedule reminder",
			zap.String("bookingId", bookingID),
			zap.Time("fireAt", fireAt),
			zap.Error(err))
	}
}
