package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/southside-backend/pkg/enums"
	"github.com/angelmondragon/southside-backend/pkg/logger"
)

type recordingPublisher struct {
	messages [][]byte
	attrs    []map[string]string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, data []byte, attrs map[string]string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, data)
	p.attrs = append(p.attrs, attrs)
	return "msg-1", nil
}

func TestNotifierPublishesOnlyRealTransitions(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(pub, logger.Nop())

	n.Notify(context.Background(), Result{Kind: enums.RecordKindBooking, ID: "bk_1", Decision: DecisionNoop}, "evt_0")
	n.Notify(context.Background(), Result{Kind: enums.RecordKindBooking, ID: "bk_1", Decision: DecisionMerged}, "evt_1")
	if len(pub.messages) != 0 {
		t.Fatalf("expected no publish for unchanged status, got %d", len(pub.messages))
	}

	n.Notify(context.Background(), Result{
		Kind: enums.RecordKindBooking, ID: "bk_1", Decision: DecisionTransitioned,
		From: enums.PaymentStatusPending, To: enums.PaymentStatusPaid, Operational: "scheduled",
	}, "evt_2")
	if len(pub.messages) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.messages))
	}

	var evt LifecycleEvent
	if err := json.Unmarshal(pub.messages[0], &evt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if evt.Type != EventBookingScheduled || evt.RecordID != "bk_1" || evt.SourceEventID != "evt_2" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if pub.attrs[0]["event_type"] != EventBookingScheduled {
		t.Fatalf("unexpected attributes %v", pub.attrs[0])
	}
}

func TestEventTypeByKindAndOutcome(t *testing.T) {
	cases := []struct {
		kind enums.RecordKind
		to   enums.PaymentStatus
		want string
	}{
		{enums.RecordKindBooking, enums.PaymentStatusPaid, EventBookingScheduled},
		{enums.RecordKindBooking, enums.PaymentStatusExpired, EventBookingCancelled},
		{enums.RecordKindSubscription, enums.PaymentStatusPaid, EventSubscriptionActivated},
		{enums.RecordKindSubscription, enums.PaymentStatusExpired, EventSubscriptionCancelled},
	}
	for _, tc := range cases {
		if got := eventType(Result{Kind: tc.kind, To: tc.to}); got != tc.want {
			t.Fatalf("%s/%s: got %s want %s", tc.kind, tc.to, got, tc.want)
		}
	}
}

func TestNotifierSwallowsPublishErrorsAndNilPublisher(t *testing.T) {
	res := Result{Kind: enums.RecordKindBooking, ID: "bk_1", Decision: DecisionTransitioned, To: enums.PaymentStatusExpired}

	NewNotifier(&recordingPublisher{err: errors.New("unavailable")}, logger.Nop()).Notify(context.Background(), res, "evt")
	NewNotifier(nil, nil).Notify(context.Background(), res, "evt")

	var n *Notifier
	n.Notify(context.Background(), res, "evt")
}
