package payment

import (
	"context"

	"slotwise/models"
	"slotwise/services/booking"
)

// Confirm resolves a client's "did my payment go through?" poll: it checks
// the intent's status at the gateway and returns the existing booking or
// materializes it on the spot. Webhook delivery usually wins this race; the
// materializer makes either order safe.
func (o *Orchestrator) Confirm(ctx context.Context, paymentIntentID string) (*models.Booking, error) {
	intent, err := o.Gateway.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != "succeeded" {
		return nil, &booking.ValidationError{Message: "payment has not completed"}
	}
	return o.Materializer.Materialize(ctx, paymentIntentID)
}
