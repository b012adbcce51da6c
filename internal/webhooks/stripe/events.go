package stripewebhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/southside-backend/pkg/enums"
	"github.com/stripe/stripe-go/v84"
)

// Metadata keys written by checkout and read back here.
const (
	MetaBookingID      = "bookingId"
	MetaSubscriptionID = "subscriptionId"
)

// Event is the closed set of Stripe events the handler understands. Every
// implementation lives in this file.
type Event interface {
	Meta() Envelope
	sealed()
}

// Envelope carries the fields common to every event.
type Envelope struct {
	ID      string
	Type    stripe.EventType
	Created time.Time
}

func (e Envelope) Meta() Envelope { return e }
func (Envelope) sealed()          {}

// RecordRef points at the record named in event metadata. ID is empty when
// the metadata carried no record identifier.
type RecordRef struct {
	Kind enums.RecordKind
	ID   string
}

type CheckoutSessionCompleted struct {
	Envelope
	Ref             RecordRef
	SessionID       string
	PaymentIntentID string
	SubscriptionID  string
}

type CheckoutSessionExpired struct {
	Envelope
	Ref       RecordRef
	SessionID string
}

type PaymentIntentSucceeded struct {
	Envelope
	Ref             RecordRef
	PaymentIntentID string
}

type ChargeSucceeded struct {
	Envelope
	Ref             RecordRef
	ChargeID        string
	PaymentIntentID string
}

// Unrecognized is any event type the handler does not act on.
type Unrecognized struct {
	Envelope
}

// Decode maps a verified Stripe event onto its variant. Unknown types decode
// to Unrecognized; a known type with an undecodable object is an error.
func Decode(event stripe.Event) (Event, error) {
	env := Envelope{ID: event.ID, Type: event.Type}
	if event.Created > 0 {
		env.Created = time.Unix(event.Created, 0).UTC()
	}

	var raw json.RawMessage
	if event.Data != nil {
		raw = event.Data.Raw
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionExpired:
		var sess stripe.CheckoutSession
		if err := decodeObject(raw, &sess); err != nil {
			return nil, err
		}
		ref := refFromMetadata(sess.Metadata)
		if event.Type == stripe.EventTypeCheckoutSessionExpired {
			return CheckoutSessionExpired{Envelope: env, Ref: ref, SessionID: sess.ID}, nil
		}
		out := CheckoutSessionCompleted{Envelope: env, Ref: ref, SessionID: sess.ID}
		if sess.PaymentIntent != nil {
			out.PaymentIntentID = sess.PaymentIntent.ID
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}
		return out, nil

	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := decodeObject(raw, &pi); err != nil {
			return nil, err
		}
		return PaymentIntentSucceeded{Envelope: env, Ref: refFromMetadata(pi.Metadata), PaymentIntentID: pi.ID}, nil

	case stripe.EventTypeChargeSucceeded:
		var ch stripe.Charge
		if err := decodeObject(raw, &ch); err != nil {
			return nil, err
		}
		out := ChargeSucceeded{Envelope: env, Ref: refFromMetadata(ch.Metadata), ChargeID: ch.ID}
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
		return out, nil

	default:
		return Unrecognized{Envelope: env}, nil
	}
}

func decodeObject(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("event object missing")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode event object: %w", err)
	}
	return nil
}

// refFromMetadata prefers bookingId; subscription checkouts only ever set
// subscriptionId.
func refFromMetadata(meta map[string]string) RecordRef {
	if id := meta[MetaBookingID]; id != "" {
		return RecordRef{Kind: enums.RecordKindBooking, ID: id}
	}
	if id := meta[MetaSubscriptionID]; id != "" {
		return RecordRef{Kind: enums.RecordKindSubscription, ID: id}
	}
	return RecordRef{}
}
