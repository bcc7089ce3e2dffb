package gateway

import (
	"context"
	"encoding/json"
	"fmt"
)

// Intent is a gateway-side authorized charge object.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

// Event is a verified webhook delivery from the gateway.
type Event struct {
	ID   string
	Type string
	Data json.RawMessage
}

// CreateIntentRequest carries everything needed to open a payment intent.
// Amount is in minor currency units. IdempotencyKey must be deterministic
// per logical request so gateway-side retries collapse into one intent.
type CreateIntentRequest struct {
	Amount         int64
	Currency       string
	Method         string
	IdempotencyKey string
	Metadata       map[string]string
}

// Client is the payment gateway collaborator: intent create/retrieve plus
// webhook signature verification.
type Client interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

// Error wraps a gateway failure with enough context for the error taxonomy.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// BadSignatureError marks a webhook whose signature did not verify. It is
// permanent: the delivery must never be retried.
type BadSignatureError struct {
	Err error
}

func (e *BadSignatureError) Error() string {
	return fmt.Sprintf("webhook signature verification failed: %v", e.Err)
}

func (e *BadSignatureError) Unwrap() error { return e.Err }
