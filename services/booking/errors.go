package booking

import "fmt"

// Policy violation reasons. They travel to the client as machine-readable
// reason codes so the UI can render the exact rule that blocked the request.
const (
	ReasonMinLead           = "MIN_LEAD"
	ReasonCancellationLimit = "CANCELLATION_LIMIT"
	ReasonReminderGrace     = "REMINDER_GRACE"
)

// PolicyViolation is a named business-rule breach: the request was well
// formed and authorized but a time-window rule forbids it.
type PolicyViolation struct {
	Reason  string
	Message string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// ValidationError marks malformed or inconsistent input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthorizationError marks a request the actor is not allowed to make.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// NotFoundError marks a missing referenced entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError marks a duplicate slot or a stale state transition.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
