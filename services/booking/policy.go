package booking

import (
	"time"

	"slotwise/models"
)

// Transition events.
const (
	EventCreate        = "create"
	EventAttachConsent = "attach_consent"
	EventCancel        = "cancel"
)

// Policy holds the business time-window rules. All booking entry points --
// synchronous creation, webhook-driven materialization, and cancellation --
// share the one Transition function below instead of re-checking windows
// ad hoc.
type Policy struct {
	MinLead           time.Duration
	CancellationLimit time.Duration
	ReminderGrace     time.Duration
}

// DefaultPolicy returns the standard windows: bookings at least 2h out,
// cancellation up to 23h before, 1h of grace after a reminder goes out.
func DefaultPolicy() Policy {
	return Policy{
		MinLead:           2 * time.Hour,
		CancellationLimit: 23 * time.Hour,
		ReminderGrace:     time.Hour,
	}
}

// consentRequiredCategories is the fixed set of business categories whose
// bookings start in PENDING_CONSENT instead of CONFIRMED.
var consentRequiredCategories = map[string]bool{
	models.CategoryMedical:       true,
	models.CategoryDental:        true,
	models.CategoryPhysiotherapy: true,
	models.CategoryPsychology:    true,
}

// ConsentRequired reports whether the category needs a signed consent form
// before a booking can reach CONFIRMED.
func ConsentRequired(category string) bool {
	return consentRequiredCategories[category]
}

// TransitionInput carries the facts the transition function judges.
type TransitionInput struct {
	State            string // current status; empty for creation
	Event            string
	Now              time.Time
	ScheduledAt      time.Time
	BusinessCategory string
	ReminderSentAt   *time.Time
}

// Transition computes the next booking state for an event, or the exact
// policy/conflict error forbidding it.
//
// Cancellation combines its two windows explicitly: the 23h cutoff is
// checked first, and only when it passes is the post-reminder grace
// evaluated. A reminder dispatched more than ReminderGrace ago blocks
// cancellation even far ahead of the cutoff.
func (p Policy) Transition(in TransitionInput) (string, error) {
	switch in.Event {
	case EventCreate:
		if in.ScheduledAt.Sub(in.Now) < p.MinLead {
			return "", &PolicyViolation{
				Reason:  ReasonMinLead,
				Message: "booking must be scheduled at least " + p.MinLead.String() + " in advance",
			}
		}
		if ConsentRequired(in.BusinessCategory) {
			return models.BookingPendingConsent, nil
		}
		return models.BookingConfirmed, nil

	case EventAttachConsent:
		if in.State != models.BookingPendingConsent {
			return "", &ConflictError{Message: "booking is not awaiting consent"}
		}
		return models.BookingConfirmed, nil

	case EventCancel:
		if in.State != models.BookingPendingConsent && in.State != models.BookingConfirmed {
			return "", &ConflictError{Message: "booking cannot be cancelled from state " + in.State}
		}
		if in.ScheduledAt.Sub(in.Now) < p.CancellationLimit {
			return "", &PolicyViolation{
				Reason:  ReasonCancellationLimit,
				Message: "bookings can only be cancelled up to " + p.CancellationLimit.String() + " in advance",
			}
		}
		if in.ReminderSentAt != nil && in.Now.Sub(*in.ReminderSentAt) > p.ReminderGrace {
			return "", &PolicyViolation{
				Reason:  ReasonReminderGrace,
				Message: "the reminder grace window of " + p.ReminderGrace.String() + " has passed",
			}
		}
		return models.BookingCancelled, nil

	default:
		return "", &ValidationError{Message: "unknown booking event " + in.Event}
	}
}
