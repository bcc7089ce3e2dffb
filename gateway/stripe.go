package gateway

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements Client against Stripe. It is constructed once at
// bootstrap and injected; no package-global key is set.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	timeout       time.Duration
}

// NewStripeGateway builds a Stripe-backed gateway client.
func NewStripeGateway(secretKey, webhookSecret string, timeout time.Duration) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
		timeout:       timeout,
	}
}

// CreateIntent opens a payment intent. The idempotency key rides on the
// request so a retried call returns the original intent instead of opening a
// second charge.
func (g *StripeGateway) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, &Error{Op: "create intent", Err: err}
	}
	return intentFromStripe(pi), nil
}

// RetrieveIntent fetches an existing payment intent.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, &Error{Op: "retrieve intent", Err: err}
	}
	return intentFromStripe(pi), nil
}

// VerifyWebhook checks the delivery's signature against the endpoint secret
// before anything else happens. A bad signature is a permanent failure.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, &BadSignatureError{Err: err}
	}
	return &Event{
		ID:   ev.ID,
		Type: string(ev.Type),
		Data: ev.Data.Raw,
	}, nil
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}
