package stripewebhook

import (
	"context"
	"time"

	"github.com/angelmondragon/southside-backend/internal/bookings"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
)

// Outcome labels used for metrics beyond the bookings.Decision values.
const (
	outcomeUnrecognized     = "unrecognized"
	outcomeMalformed        = "malformed"
	outcomeMissingReference = "missing_reference"
	outcomeUnknownRecord    = "unknown_record"
	outcomeStoreError       = "store_error"
)

type transitionStore interface {
	ApplyTransition(ctx context.Context, kind enums.RecordKind, id string, t bookings.Transition) (bookings.Result, error)
}

type lifecycleNotifier interface {
	Notify(ctx context.Context, res bookings.Result, sourceEventID string)
}

type metricsRecorder interface {
	IncWebhookEvent(eventType, outcome string)
}

type ServiceParams struct {
	Store    transitionStore
	Notifier lifecycleNotifier
	Metrics  metricsRecorder
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service applies verified Stripe events to bookings and subscription
// intents.
type Service struct {
	store    transitionStore
	notifier lifecycleNotifier
	metrics  metricsRecorder
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record store required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    params.Store,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// HandleEvent returns an error only when the store failed, so that Stripe
// redelivers. Unknown types, missing or unknown record IDs and ignored
// transitions are acknowledged.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event required")
	}
	ctx = s.withEvent(ctx, event)

	decoded, err := Decode(*event)
	if err != nil {
		s.warn(ctx, "webhook.malformed_event: "+err.Error())
		s.count(event.Type, outcomeMalformed)
		return nil
	}

	ref, t, ok := s.transitionFor(decoded)
	if !ok {
		s.debug(ctx, "webhook.ignored_event_type")
		s.count(event.Type, outcomeUnrecognized)
		return nil
	}
	if ref.ID == "" {
		s.warn(ctx, "webhook.record_id_missing")
		s.count(event.Type, outcomeMissingReference)
		return nil
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"record_kind": string(ref.Kind), "record_id": ref.ID})
	}

	res, err := s.store.ApplyTransition(ctx, ref.Kind, ref.ID, t)
	if err != nil {
		if bookings.IsNotFound(err) {
			s.warn(ctx, "webhook.record_not_found")
			s.count(event.Type, outcomeUnknownRecord)
			return nil
		}
		s.count(event.Type, outcomeStoreError)
		return err
	}

	s.count(event.Type, string(res.Decision))
	switch res.Decision {
	case bookings.DecisionIgnored:
		s.warn(ctx, "webhook.transition_ignored_terminal_state")
	default:
		if s.logg != nil {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"decision": string(res.Decision),
				"from":     string(res.From),
				"to":       string(res.To),
			}), "webhook.transition_applied")
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, res, event.ID)
	}
	return nil
}

// transitionFor maps a variant to the record it references and the change to
// apply. ok is false for Unrecognized.
func (s *Service) transitionFor(ev Event) (RecordRef, bookings.Transition, bool) {
	at := ev.Meta().Created
	if at.IsZero() {
		at = s.now().UTC()
	}

	switch e := ev.(type) {
	case CheckoutSessionCompleted:
		return e.Ref, bookings.Transition{
			Outcome:              bookings.OutcomePaid,
			StripeSessionID:      e.SessionID,
			StripeSubscriptionID: e.SubscriptionID,
			PaymentIntentID:      e.PaymentIntentID,
			At:                   at,
		}, true
	case PaymentIntentSucceeded:
		return e.Ref, bookings.Transition{
			Outcome:         bookings.OutcomePaid,
			PaymentIntentID: e.PaymentIntentID,
			At:              at,
		}, true
	case ChargeSucceeded:
		return e.Ref, bookings.Transition{
			Outcome:         bookings.OutcomePaid,
			ChargeID:        e.ChargeID,
			PaymentIntentID: e.PaymentIntentID,
			At:              at,
		}, true
	case CheckoutSessionExpired:
		return e.Ref, bookings.Transition{
			Outcome:         bookings.OutcomeExpired,
			StripeSessionID: e.SessionID,
			At:              at,
		}, true
	case Unrecognized:
		return RecordRef{}, bookings.Transition{}, false
	default:
		return RecordRef{}, bookings.Transition{}, false
	}
}

func (s *Service) withEvent(ctx context.Context, event *stripe.Event) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithEventID(ctx, event.ID)
	return s.logg.WithField(ctx, "event_type", string(event.Type))
}

func (s *Service) count(eventType stripe.EventType, outcome string) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(string(eventType), outcome)
	}
}

func (s *Service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}

func (s *Service) debug(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Debug(ctx, msg)
	}
}
