package bookings

import (
	"testing"
	"time"

	"github.com/angelmondragon/southside-backend/pkg/enums"
)

var t0 = time.Date(2025, 10, 6, 9, 30, 0, 0, time.UTC)

func pendingBooking() State {
	return State{
		PaymentStatus: enums.PaymentStatusPending,
		Operational:   string(enums.ServiceStatusAwaitingPayment),
	}
}

func TestApplyPendingToPaid(t *testing.T) {
	next, decision, err := Apply(enums.RecordKindBooking, pendingBooking(), Transition{
		Outcome:         OutcomePaid,
		StripeSessionID: "cs_1",
		PaymentIntentID: "pi_1",
		At:              t0,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if decision != DecisionTransitioned {
		t.Fatalf("expected transitioned, got %s", decision)
	}
	if next.PaymentStatus != enums.PaymentStatusPaid || next.Operational != string(enums.ServiceStatusScheduled) {
		t.Fatalf("unexpected status pair %s/%s", next.PaymentStatus, next.Operational)
	}
	if next.PaidAt == nil || !next.PaidAt.Equal(t0) {
		t.Fatalf("expected paidAt %v, got %v", t0, next.PaidAt)
	}
	if next.StripeSessionID != "cs_1" || next.PaymentIntentID != "pi_1" {
		t.Fatalf("linkage not stored: %+v", next)
	}
}

func TestApplySubscriptionActivates(t *testing.T) {
	current := State{
		PaymentStatus: enums.PaymentStatusPending,
		Operational:   string(enums.SubscriptionStatusAwaitingCheckout),
	}
	next, _, err := Apply(enums.RecordKindSubscription, current, Transition{Outcome: OutcomePaid, StripeSubscriptionID: "sub_1", At: t0})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if next.Operational != string(enums.SubscriptionStatusActive) || next.StripeSubscriptionID != "sub_1" {
		t.Fatalf("unexpected subscription state %+v", next)
	}

	expired, _, _ := Apply(enums.RecordKindSubscription, current, Transition{Outcome: OutcomeExpired, At: t0})
	if expired.Operational != string(enums.SubscriptionStatusCancelled) {
		t.Fatalf("expected cancelled subscription, got %s", expired.Operational)
	}
}

func TestApplyBookingDropsSubscriptionID(t *testing.T) {
	next, _, _ := Apply(enums.RecordKindBooking, pendingBooking(), Transition{Outcome: OutcomePaid, StripeSubscriptionID: "sub_1", At: t0})
	if next.StripeSubscriptionID != "" {
		t.Fatalf("bookings must not carry a subscription id")
	}
}

func TestApplyPendingToExpired(t *testing.T) {
	next, decision, err := Apply(enums.RecordKindBooking, pendingBooking(), Transition{Outcome: OutcomeExpired, At: t0})
	if err != nil || decision != DecisionTransitioned {
		t.Fatalf("expected transition, got %s err=%v", decision, err)
	}
	if next.PaymentStatus != enums.PaymentStatusExpired || next.Operational != string(enums.ServiceStatusCancelled) {
		t.Fatalf("unexpected status pair %s/%s", next.PaymentStatus, next.Operational)
	}
	if next.ExpiredAt == nil || next.PaidAt != nil {
		t.Fatalf("expected only expiredAt set: %+v", next)
	}
}

func TestApplyTerminalStatesIgnoreOpposingEvents(t *testing.T) {
	paid, _, _ := Apply(enums.RecordKindBooking, pendingBooking(), Transition{Outcome: OutcomePaid, At: t0})
	after, decision, _ := Apply(enums.RecordKindBooking, paid, Transition{Outcome: OutcomeExpired, At: t0.Add(time.Hour)})
	if decision != DecisionIgnored || after.PaymentStatus != enums.PaymentStatusPaid || after.ExpiredAt != nil {
		t.Fatalf("late expiry must not touch a paid record: %s %+v", decision, after)
	}

	expired, _, _ := Apply(enums.RecordKindBooking, pendingBooking(), Transition{Outcome: OutcomeExpired, At: t0})
	after, decision, _ = Apply(enums.RecordKindBooking, expired, Transition{Outcome: OutcomePaid, PaymentIntentID: "pi_late", At: t0.Add(time.Hour)})
	if decision != DecisionIgnored || after.PaymentStatus != enums.PaymentStatusExpired || after.PaymentIntentID != "" {
		t.Fatalf("late payment must not touch an expired record: %s %+v", decision, after)
	}

	_, decision, _ = Apply(enums.RecordKindBooking, expired, Transition{Outcome: OutcomeExpired, At: t0.Add(time.Hour)})
	if decision != DecisionNoop {
		t.Fatalf("repeated expiry should be a noop, got %s", decision)
	}
}

func TestApplyPaidEventsConvergeInAnyOrder(t *testing.T) {
	events := []Transition{
		{Outcome: OutcomePaid, StripeSessionID: "cs_1", PaymentIntentID: "pi_1", At: t0},
		{Outcome: OutcomePaid, PaymentIntentID: "pi_1", At: t0.Add(time.Second)},
		{Outcome: OutcomePaid, ChargeID: "ch_1", At: t0.Add(2 * time.Second)},
	}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}, {1, 0, 1, 2, 2}}

	var want *State
	for _, order := range orders {
		state := pendingBooking()
		for _, idx := range order {
			next, _, err := Apply(enums.RecordKindBooking, state, events[idx])
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			state = next
		}
		state.PaidAt = nil // first-writer timestamp depends on which event led
		if want == nil {
			want = &state
			continue
		}
		if state != *want {
			t.Fatalf("order %v diverged: got %+v want %+v", order, state, *want)
		}
	}
	if want.PaymentStatus != enums.PaymentStatusPaid || want.Operational != string(enums.ServiceStatusScheduled) {
		t.Fatalf("unexpected converged state %+v", *want)
	}
}

func TestApplyRepeatedPaidKeepsFirstPaidAt(t *testing.T) {
	first, _, _ := Apply(enums.RecordKindBooking, pendingBooking(), Transition{Outcome: OutcomePaid, PaymentIntentID: "pi_1", At: t0})
	second, decision, _ := Apply(enums.RecordKindBooking, first, Transition{Outcome: OutcomePaid, PaymentIntentID: "pi_1", At: t0.Add(time.Hour)})
	if decision != DecisionNoop {
		t.Fatalf("identical redelivery should be a noop, got %s", decision)
	}
	if !second.PaidAt.Equal(t0) {
		t.Fatalf("paidAt moved to %v", second.PaidAt)
	}

	merged, decision, _ := Apply(enums.RecordKindBooking, first, Transition{Outcome: OutcomePaid, ChargeID: "ch_1", At: t0.Add(time.Hour)})
	if decision != DecisionMerged || merged.ChargeID != "ch_1" || !merged.PaidAt.Equal(t0) {
		t.Fatalf("expected merged charge id with original paidAt: %s %+v", decision, merged)
	}
}

func TestNoSequenceReturnsToPending(t *testing.T) {
	outcomes := []Outcome{OutcomePaid, OutcomeExpired}
	var walk func(state State, depth int)
	walk = func(state State, depth int) {
		if depth == 0 {
			return
		}
		for _, o := range outcomes {
			next, _, err := Apply(enums.RecordKindBooking, state, Transition{Outcome: o, At: t0})
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if state.PaymentStatus != enums.PaymentStatusPending && next.PaymentStatus == enums.PaymentStatusPending {
				t.Fatalf("transition %s returned record to pending", o)
			}
			if next.Operational == string(enums.ServiceStatusAwaitingPayment) && next.PaymentStatus != enums.PaymentStatusPending {
				t.Fatalf("operational status regressed: %+v", next)
			}
			walk(next, depth-1)
		}
	}
	walk(pendingBooking(), 4)
}

func TestApplyRejectsUnknownInputs(t *testing.T) {
	if _, _, err := Apply(enums.RecordKindBooking, pendingBooking(), Transition{Outcome: "refunded"}); err == nil {
		t.Fatal("expected unknown outcome to fail")
	}
	if _, _, err := Apply("invoice", pendingBooking(), Transition{Outcome: OutcomePaid}); err == nil {
		t.Fatal("expected unknown kind to fail")
	}
	if _, _, err := Apply(enums.RecordKindBooking, State{PaymentStatus: "void"}, Transition{Outcome: OutcomePaid}); err == nil {
		t.Fatal("expected unknown stored status to fail")
	}
}

func TestDiffOnlyListsChangedFields(t *testing.T) {
	before := pendingBooking()
	after, _, _ := Apply(enums.RecordKindBooking, before, Transition{Outcome: OutcomePaid, PaymentIntentID: "pi_1", At: t0})

	fields := map[Field]bool{}
	for _, c := range Diff(before, after) {
		fields[c.Field] = true
	}
	for _, f := range []Field{FieldPaymentStatus, FieldOperational, FieldPaymentIntentID, FieldPaidAt} {
		if !fields[f] {
			t.Fatalf("expected field %d in diff", f)
		}
	}
	if fields[FieldChargeID] || fields[FieldExpiredAt] || fields[FieldStripeSessionID] {
		t.Fatalf("unexpected fields in diff: %v", fields)
	}
	if len(Diff(after, after)) != 0 {
		t.Fatal("identical states should produce no diff")
	}
}
