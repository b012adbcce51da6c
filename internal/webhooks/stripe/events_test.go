package stripewebhook

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/southside-backend/pkg/enums"
	"github.com/stripe/stripe-go/v84"
)

func rawEvent(t *testing.T, id string, typ stripe.EventType, object any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal object: %v", err)
	}
	return stripe.Event{ID: id, Type: typ, Created: 1760000000, Data: &stripe.EventData{Raw: raw}}
}

func TestDecodeCheckoutSessionCompleted(t *testing.T) {
	evt := rawEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, map[string]any{
		"id":             "cs_1",
		"object":         "checkout.session",
		"payment_intent": "pi_1",
		"metadata":       map[string]string{"bookingId": "bk_1"},
	})

	decoded, err := Decode(evt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.(CheckoutSessionCompleted)
	if !ok {
		t.Fatalf("unexpected variant %T", decoded)
	}
	if got.Ref != (RecordRef{Kind: enums.RecordKindBooking, ID: "bk_1"}) || got.SessionID != "cs_1" || got.PaymentIntentID != "pi_1" {
		t.Fatalf("unexpected decode %+v", got)
	}
	if got.Meta().ID != "evt_1" || got.Meta().Created.Unix() != 1760000000 {
		t.Fatalf("unexpected envelope %+v", got.Meta())
	}
}

func TestDecodeSubscriptionSession(t *testing.T) {
	evt := rawEvent(t, "evt_2", stripe.EventTypeCheckoutSessionCompleted, map[string]any{
		"id":           "cs_2",
		"subscription": "sub_1",
		"metadata":     map[string]string{"subscriptionId": "rec_9", "plan": "weekly"},
	})
	decoded, err := Decode(evt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := decoded.(CheckoutSessionCompleted)
	if got.Ref.Kind != enums.RecordKindSubscription || got.Ref.ID != "rec_9" || got.SubscriptionID != "sub_1" {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestDecodePaymentVariants(t *testing.T) {
	pi, err := Decode(rawEvent(t, "evt_3", stripe.EventTypePaymentIntentSucceeded, map[string]any{
		"id": "pi_1", "metadata": map[string]string{"bookingId": "bk_1"},
	}))
	if err != nil {
		t.Fatalf("decode payment intent: %v", err)
	}
	if got := pi.(PaymentIntentSucceeded); got.PaymentIntentID != "pi_1" || got.Ref.ID != "bk_1" {
		t.Fatalf("unexpected payment intent %+v", got)
	}

	ch, err := Decode(rawEvent(t, "evt_4", stripe.EventTypeChargeSucceeded, map[string]any{
		"id": "ch_1", "payment_intent": "pi_1", "metadata": map[string]string{},
	}))
	if err != nil {
		t.Fatalf("decode charge: %v", err)
	}
	if got := ch.(ChargeSucceeded); got.ChargeID != "ch_1" || got.PaymentIntentID != "pi_1" || got.Ref.ID != "" {
		t.Fatalf("unexpected charge %+v", got)
	}

	exp, err := Decode(rawEvent(t, "evt_5", stripe.EventTypeCheckoutSessionExpired, map[string]any{
		"id": "cs_1", "metadata": map[string]string{"bookingId": "bk_1"},
	}))
	if err != nil {
		t.Fatalf("decode expired: %v", err)
	}
	if _, ok := exp.(CheckoutSessionExpired); !ok {
		t.Fatalf("unexpected variant %T", exp)
	}
}

func TestDecodeUnrecognizedAndMalformed(t *testing.T) {
	decoded, err := Decode(stripe.Event{ID: "evt_6", Type: "invoice.finalized"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded.(Unrecognized); !ok {
		t.Fatalf("expected Unrecognized, got %T", decoded)
	}

	_, err = Decode(stripe.Event{ID: "evt_7", Type: stripe.EventTypeChargeSucceeded, Data: &stripe.EventData{Raw: json.RawMessage(`[1,2]`)}})
	if err == nil {
		t.Fatal("expected malformed object error")
	}
}
