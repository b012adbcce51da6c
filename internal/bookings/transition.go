package bookings

import (
	"fmt"
	"time"

	"github.com/angelmondragon/southside-backend/pkg/enums"
)

// Outcome is the payment result carried by a webhook event.
type Outcome string

const (
	OutcomePaid    Outcome = "paid"
	OutcomeExpired Outcome = "expired"
)

// Transition is a requested change to a record's payment state.
type Transition struct {
	Outcome Outcome

	StripeSessionID      string
	StripeSubscriptionID string
	PaymentIntentID      string
	ChargeID             string

	At time.Time
}

// Decision describes what applying a Transition did to a record.
type Decision string

const (
	// DecisionTransitioned moved the record out of pending.
	DecisionTransitioned Decision = "transitioned"
	// DecisionMerged left status alone but filled linkage IDs on a paid record.
	DecisionMerged Decision = "merged"
	// DecisionNoop matched the current state exactly.
	DecisionNoop Decision = "noop"
	// DecisionIgnored was a transition out of a terminal state.
	DecisionIgnored Decision = "ignored"
)

// Writes reports whether the decision requires persisting the new state.
func (d Decision) Writes() bool {
	return d == DecisionTransitioned || d == DecisionMerged
}

// State is the part of a record the transition table reads and writes.
// Operational holds serviceStatus for bookings and subscriptionStatus for
// subscription intents.
type State struct {
	PaymentStatus enums.PaymentStatus
	Operational   string

	StripeSessionID      string
	StripeSubscriptionID string
	PaymentIntentID      string
	ChargeID             string

	PaidAt    *time.Time
	ExpiredAt *time.Time
}

// Result is returned by Store.ApplyTransition.
type Result struct {
	Kind     enums.RecordKind
	ID       string
	Decision Decision
	From     enums.PaymentStatus
	To       enums.PaymentStatus
	// Operational is the record's service or subscription status after the call.
	Operational string
}

// Changed reports whether the record's status moved.
func (r Result) Changed() bool {
	return r.Decision == DecisionTransitioned
}

func operationalFor(kind enums.RecordKind, outcome Outcome) string {
	switch {
	case kind == enums.RecordKindSubscription && outcome == OutcomePaid:
		return string(enums.SubscriptionStatusActive)
	case kind == enums.RecordKindSubscription:
		return string(enums.SubscriptionStatusCancelled)
	case outcome == OutcomePaid:
		return string(enums.ServiceStatusScheduled)
	default:
		return string(enums.ServiceStatusCancelled)
	}
}

// Apply runs the joint payment/operational transition table.
//
//	pending + paid    -> paid / scheduled|active
//	pending + expired -> expired / cancelled
//	paid    + paid    -> linkage IDs merged, paidAt kept
//	expired + expired -> unchanged
//	paid    + expired -> ignored
//	expired + paid    -> ignored
//
// No row leads back to pending.
func Apply(kind enums.RecordKind, current State, t Transition) (State, Decision, error) {
	if t.Outcome != OutcomePaid && t.Outcome != OutcomeExpired {
		return current, "", fmt.Errorf("unknown transition outcome %q", t.Outcome)
	}
	if !kind.IsValid() {
		return current, "", fmt.Errorf("unknown record kind %q", kind)
	}

	if kind == enums.RecordKindBooking {
		t.StripeSubscriptionID = ""
	}

	next := current
	at := t.At.UTC()

	switch current.PaymentStatus {
	case enums.PaymentStatusPending:
		if t.Outcome == OutcomePaid {
			next.PaymentStatus = enums.PaymentStatusPaid
			next.PaidAt = &at
			mergeLinkage(&next, t)
		} else {
			next.PaymentStatus = enums.PaymentStatusExpired
			next.ExpiredAt = &at
		}
		next.Operational = operationalFor(kind, t.Outcome)
		return next, DecisionTransitioned, nil

	case enums.PaymentStatusPaid:
		if t.Outcome == OutcomeExpired {
			return current, DecisionIgnored, nil
		}
		if !mergeLinkage(&next, t) {
			return current, DecisionNoop, nil
		}
		return next, DecisionMerged, nil

	case enums.PaymentStatusExpired:
		if t.Outcome == OutcomePaid {
			return current, DecisionIgnored, nil
		}
		return current, DecisionNoop, nil

	default:
		return current, "", fmt.Errorf("record has unknown payment status %q", current.PaymentStatus)
	}
}

// mergeLinkage copies every non-empty provider ID from t into s and reports
// whether anything changed.
func mergeLinkage(s *State, t Transition) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&s.StripeSessionID, t.StripeSessionID)
	set(&s.StripeSubscriptionID, t.StripeSubscriptionID)
	set(&s.PaymentIntentID, t.PaymentIntentID)
	set(&s.ChargeID, t.ChargeID)
	return changed
}

// Field names a persisted attribute touched by transitions.
type Field int

const (
	FieldPaymentStatus Field = iota
	FieldOperational
	FieldStripeSessionID
	FieldStripeSubscriptionID
	FieldPaymentIntentID
	FieldChargeID
	FieldPaidAt
	FieldExpiredAt
)

// Change is a single field write produced by Diff.
type Change struct {
	Field Field
	Value any
}

// Diff lists the field writes needed to turn before into after.
func Diff(before, after State) []Change {
	var changes []Change
	if before.PaymentStatus != after.PaymentStatus {
		changes = append(changes, Change{FieldPaymentStatus, string(after.PaymentStatus)})
	}
	if before.Operational != after.Operational {
		changes = append(changes, Change{FieldOperational, after.Operational})
	}
	strs := []struct {
		field      Field
		old, fresh string
	}{
		{FieldStripeSessionID, before.StripeSessionID, after.StripeSessionID},
		{FieldStripeSubscriptionID, before.StripeSubscriptionID, after.StripeSubscriptionID},
		{FieldPaymentIntentID, before.PaymentIntentID, after.PaymentIntentID},
		{FieldChargeID, before.ChargeID, after.ChargeID},
	}
	for _, s := range strs {
		if s.old != s.fresh {
			changes = append(changes, Change{s.field, s.fresh})
		}
	}
	if before.PaidAt == nil && after.PaidAt != nil {
		changes = append(changes, Change{FieldPaidAt, *after.PaidAt})
	}
	if before.ExpiredAt == nil && after.ExpiredAt != nil {
		changes = append(changes, Change{FieldExpiredAt, *after.ExpiredAt})
	}
	return changes
}
