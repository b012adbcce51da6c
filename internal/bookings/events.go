package bookings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/southside-backend/pkg/enums"
	"github.com/angelmondragon/southside-backend/pkg/logger"
	"github.com/google/uuid"
)

// Lifecycle event types published after a record leaves pending.
const (
	EventBookingScheduled       = "booking.scheduled"
	EventBookingCancelled       = "booking.cancelled"
	EventSubscriptionActivated  = "subscription.activated"
	EventSubscriptionCancelled  = "subscription.cancelled"
	lifecycleEventSchemaVersion = "1"
)

// Publisher sends an encoded message to the lifecycle topic.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// LifecycleEvent is the payload published for each status change.
type LifecycleEvent struct {
	EventID       string              `json:"eventId"`
	Type          string              `json:"type"`
	RecordKind    enums.RecordKind    `json:"recordKind"`
	RecordID      string              `json:"recordId"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	Status        string              `json:"status"`
	SourceEventID string              `json:"sourceEventId,omitempty"`
	OccurredAt    time.Time           `json:"occurredAt"`
}

// Notifier publishes lifecycle events. A nil publisher turns it into a no-op.
type Notifier struct {
	pub  Publisher
	logg *logger.Logger
	now  func() time.Time
}

func NewNotifier(pub Publisher, logg *logger.Logger) *Notifier {
	return &Notifier{pub: pub, logg: logg, now: time.Now}
}

// Notify publishes one event when res changed the record's status. Publish
// failures are logged, not returned: the record is already updated and a
// redelivered webhook would be a no-op.
func (n *Notifier) Notify(ctx context.Context, res Result, sourceEventID string) {
	if n == nil || n.pub == nil || !res.Changed() {
		return
	}

	evt := LifecycleEvent{
		EventID:       uuid.NewString(),
		Type:          eventType(res),
		RecordKind:    res.Kind,
		RecordID:      res.ID,
		PaymentStatus: res.To,
		Status:        res.Operational,
		SourceEventID: sourceEventID,
		OccurredAt:    n.now().UTC(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		n.logError(ctx, "lifecycle.encode_failed", err)
		return
	}

	attrs := map[string]string{
		"event_id":       evt.EventID,
		"event_type":     evt.Type,
		"record_kind":    string(evt.RecordKind),
		"record_id":      evt.RecordID,
		"schema_version": lifecycleEventSchemaVersion,
	}
	if _, err := n.pub.Publish(ctx, data, attrs); err != nil {
		n.logError(ctx, "lifecycle.publish_failed", err)
		return
	}
	if n.logg != nil {
		n.logg.Info(n.logg.WithField(ctx, "lifecycle_event", evt.Type), "lifecycle.published")
	}
}

func (n *Notifier) logError(ctx context.Context, msg string, err error) {
	if n.logg != nil {
		n.logg.Error(ctx, msg, err)
	}
}

func eventType(res Result) string {
	paid := res.To == enums.PaymentStatusPaid
	switch {
	case res.Kind == enums.RecordKindSubscription && paid:
		return EventSubscriptionActivated
	case res.Kind == enums.RecordKindSubscription:
		return EventSubscriptionCancelled
	case paid:
		return EventBookingScheduled
	default:
		return EventBookingCancelled
	}
}
