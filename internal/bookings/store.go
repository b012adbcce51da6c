package bookings

import (
	"context"
	"errors"

	"github.com/angelmondragon/southside-backend/pkg/db/models"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
)

const (
	BookingsCollection      = "bookings"
	SubscriptionsCollection = "subscriptions"
)

// ErrNotFound is returned when a record ID does not exist in its collection.
var ErrNotFound = errors.New("record not found")

// Store persists bookings and subscription intents and applies payment
// transitions atomically per record.
type Store interface {
	CreateBooking(ctx context.Context, booking *models.Booking) (string, error)
	CreateSubscriptionIntent(ctx context.Context, intent *models.SubscriptionIntent) (string, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetSubscriptionIntent(ctx context.Context, id string) (*models.SubscriptionIntent, error)
	// ApplyTransition reads the record, runs Apply and writes the result in one
	// atomic step. It returns ErrNotFound when id does not exist.
	ApplyTransition(ctx context.Context, kind enums.RecordKind, id string, t Transition) (Result, error)
	Ping(ctx context.Context) error
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(kind enums.RecordKind, id string) error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, string(kind)+" "+id+" not found")
}

func bookingState(b *models.Booking) State {
	return State{
		PaymentStatus:   b.PaymentStatus,
		Operational:     string(b.ServiceStatus),
		StripeSessionID: b.StripeSessionID,
		PaymentIntentID: b.PaymentIntentID,
		ChargeID:        b.ChargeID,
		PaidAt:          b.PaidAt,
		ExpiredAt:       b.ExpiredAt,
	}
}

func subscriptionState(s *models.SubscriptionIntent) State {
	return State{
		PaymentStatus:        s.PaymentStatus,
		Operational:          string(s.SubscriptionStatus),
		StripeSessionID:      s.StripeSessionID,
		StripeSubscriptionID: s.StripeSubscriptionID,
		PaymentIntentID:      s.PaymentIntentID,
		ChargeID:             s.ChargeID,
		PaidAt:               s.PaidAt,
		ExpiredAt:            s.ExpiredAt,
	}
}

// firestoreField maps a Field to its document key.
func firestoreField(kind enums.RecordKind, f Field) string {
	switch f {
	case FieldPaymentStatus:
		return "paymentStatus"
	case FieldOperational:
		if kind == enums.RecordKindSubscription {
			return "subscriptionStatus"
		}
		return "serviceStatus"
	case FieldStripeSessionID:
		return "stripeSessionId"
	case FieldStripeSubscriptionID:
		return "stripeSubscriptionId"
	case FieldPaymentIntentID:
		return "paymentIntentId"
	case FieldChargeID:
		return "chargeId"
	case FieldPaidAt:
		return "paidAt"
	case FieldExpiredAt:
		return "expiredAt"
	}
	return ""
}

// sqlColumn maps a Field to its table column.
func sqlColumn(kind enums.RecordKind, f Field) string {
	switch f {
	case FieldPaymentStatus:
		return "payment_status"
	case FieldOperational:
		if kind == enums.RecordKindSubscription {
			return "subscription_status"
		}
		return "service_status"
	case FieldStripeSessionID:
		return "stripe_session_id"
	case FieldStripeSubscriptionID:
		return "stripe_subscription_id"
	case FieldPaymentIntentID:
		return "payment_intent_id"
	case FieldChargeID:
		return "charge_id"
	case FieldPaidAt:
		return "paid_at"
	case FieldExpiredAt:
		return "expired_at"
	}
	return ""
}

func collectionFor(kind enums.RecordKind) string {
	if kind == enums.RecordKindSubscription {
		return SubscriptionsCollection
	}
	return BookingsCollection
}
