package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paymentRepo "slotwise/database/repository/payment"
	subscriptionRepo "slotwise/database/repository/subscription"
	webhookEventRepo "slotwise/database/repository/webhookevent"
	"slotwise/gateway"
	"slotwise/models"
	"slotwise/services/booking"
	"slotwise/services/payment"

	"go.uber.org/zap"
)

// Gateway event types the processor reacts to.
const (
	eventPaymentSucceeded    = "payment_intent.succeeded"
	eventCheckoutCompleted   = "checkout.session.completed"
	eventPaymentFailed       = "payment_intent.payment_failed"
	eventInvoiceFailed       = "invoice.payment_failed"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
)

// Processor consumes at-least-once, possibly reordered gateway deliveries
// and drives exactly-once effects. Two independent idempotency layers stand
// behind that: the processed-event flag checked first, and the per-entity
// "effect already applied?" checks (Payment.BookingID set, subscription
// upsert) underneath it. Removing either reopens a race between effect-write
// and flag-write.
type Processor struct {
	Gateway       gateway.Client
	Events        webhookEventRepo.WebhookEventRepository
	Payments      paymentRepo.PaymentRepository
	Subscriptions subscriptionRepo.SubscriptionRepository
	Materializer  *payment.Materializer
	Logger        *zap.Logger
}

// Process verifies and handles one webhook delivery. A signature failure is
// permanent; any returned storage error is safe to answer with a 5xx and let
// the gateway redeliver.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) error {
	ev, err := p.Gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}

	processed, err := p.Events.IsProcessed(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("look up webhook event: %w", err)
	}
	if processed {
		p.Logger.Debug("webhook event already processed", zap.String("eventId", ev.ID))
		return nil
	}

	if err := p.handle(ctx, ev); err != nil {
		if permanent(err) {
			// Retrying cannot change the outcome; record the event so the
			// gateway stops redelivering it.
			p.Logger.Error("webhook effect permanently rejected",
				zap.String("eventId", ev.ID),
				zap.String("type", ev.Type),
				zap.Error(err))
		} else {
			return err
		}
	}

	if err := p.Events.MarkProcessed(ctx, ev.ID, ev.Type); err != nil {
		return err
	}
	return nil
}

func (p *Processor) handle(ctx context.Context, ev *gateway.Event) error {
	switch ev.Type {
	case eventPaymentSucceeded, eventCheckoutCompleted:
		return p.handlePaymentConfirmed(ctx, ev)
	case eventSubscriptionUpdated, eventSubscriptionDeleted:
		return p.handleSubscription(ctx, ev)
	case eventPaymentFailed:
		return p.handlePaymentFailed(ctx, ev)
	case eventInvoiceFailed:
		return p.handleInvoiceFailed(ctx, ev)
	default:
		p.Logger.Debug("ignoring webhook event type", zap.String("type", ev.Type))
		return nil
	}
}

// handlePaymentConfirmed materializes the deferred booking behind the paid
// intent. The materializer short-circuits when the payment already carries a
// booking id, so a duplicate delivery only acknowledges.
func (p *Processor) handlePaymentConfirmed(ctx context.Context, ev *gateway.Event) error {
	var data struct {
		ID            string `json:"id"`
		PaymentIntent string `json:"payment_intent"`
	}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return fmt.Errorf("decode payment event: %w", err)
	}

	externalID := data.PaymentIntent // checkout sessions reference the intent
	if externalID == "" {
		externalID = data.ID
	}

	booked, err := p.Materializer.Materialize(ctx, externalID)
	if err != nil {
		var notFound *booking.NotFoundError
		if errors.As(err, &notFound) && notFound.Entity == "payment" {
			// Not an intent this server opened; nothing to reconcile.
			p.Logger.Warn("webhook for unknown payment",
				zap.String("externalPaymentId", externalID))
			return nil
		}
		return err
	}

	p.Logger.Info("payment reconciled",
		zap.String("eventId", ev.ID),
		zap.String("externalPaymentId", externalID),
		zap.String("bookingId", booked.ID))
	return nil
}

func (p *Processor) handleSubscription(ctx context.Context, ev *gateway.Event) error {
	var data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		CurrentPeriodEnd int64  `json:"current_period_end"`
	}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return fmt.Errorf("decode subscription event: %w", err)
	}

	status := data.Status
	if ev.Type == eventSubscriptionDeleted {
		status = models.SubscriptionCanceled
	}
	periodEnd := time.Unix(data.CurrentPeriodEnd, 0).UTC()

	if err := p.Subscriptions.UpdateFromGateway(ctx, data.ID, status, periodEnd); err != nil {
		return err
	}
	p.Logger.Info("subscription updated",
		zap.String("externalSubscriptionId", data.ID),
		zap.String("status", status))
	return nil
}

func (p *Processor) handlePaymentFailed(ctx context.Context, ev *gateway.Event) error {
	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return fmt.Errorf("decode payment failure event: %w", err)
	}

	err := p.Payments.SetStatusByExternalID(ctx, data.ID, models.PaymentFailed)
	if err != nil && !errors.Is(err, paymentRepo.ErrNotFound) {
		return err
	}
	p.Logger.Info("payment marked failed", zap.String("externalPaymentId", data.ID))
	return nil
}

func (p *Processor) handleInvoiceFailed(ctx context.Context, ev *gateway.Event) error {
	var data struct {
		Subscription string `json:"subscription"`
	}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return fmt.Errorf("decode invoice failure event: %w", err)
	}
	if data.Subscription == "" {
		return nil
	}

	err := p.Subscriptions.SetStatus(ctx, data.Subscription, models.SubscriptionPastDue)
	if err != nil && !errors.Is(err, subscriptionRepo.ErrNotFound) {
		return err
	}
	p.Logger.Info("subscription marked past due",
		zap.String("externalSubscriptionId", data.Subscription))
	return nil
}

// permanent reports whether the effect failure cannot be cured by a
// redelivery: the business rules themselves rejected it.
func permanent(err error) bool {
	var policy *booking.PolicyViolation
	var validation *booking.ValidationError
	var conflict *booking.ConflictError
	var notFound *booking.NotFoundError
	var authz *booking.AuthorizationError
	return errors.As(err, &policy) ||
		errors.As(err, &validation) ||
		errors.As(err, &conflict) ||
		errors.As(err, &notFound) ||
		errors.As(err, &authz)
}
