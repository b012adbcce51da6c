package stripewebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/southside-backend/internal/bookings"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/stripe/stripe-go/v84"
)

type applyCall struct {
	kind enums.RecordKind
	id   string
	t    bookings.Transition
}

// memoryStore runs the real transition table over in-memory state.
type memoryStore struct {
	states map[string]bookings.State
	calls  []applyCall
	err    error
}

func newMemoryStore(ids ...string) *memoryStore {
	s := &memoryStore{states: map[string]bookings.State{}}
	for _, id := range ids {
		s.states[id] = bookings.State{
			PaymentStatus: enums.PaymentStatusPending,
			Operational:   string(enums.ServiceStatusAwaitingPayment),
		}
	}
	return s
}

func (m *memoryStore) ApplyTransition(_ context.Context, kind enums.RecordKind, id string, t bookings.Transition) (bookings.Result, error) {
	m.calls = append(m.calls, applyCall{kind, id, t})
	if m.err != nil {
		return bookings.Result{}, m.err
	}
	current, ok := m.states[id]
	if !ok {
		return bookings.Result{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, bookings.ErrNotFound, "missing")
	}
	next, decision, err := bookings.Apply(kind, current, t)
	if err != nil {
		return bookings.Result{}, err
	}
	m.states[id] = next
	return bookings.Result{Kind: kind, ID: id, Decision: decision, From: current.PaymentStatus, To: next.PaymentStatus, Operational: next.Operational}, nil
}

type recordingNotifier struct {
	results []bookings.Result
}

func (r *recordingNotifier) Notify(_ context.Context, res bookings.Result, _ string) {
	if res.Changed() {
		r.results = append(r.results, res)
	}
}

type outcomeCounter map[string]int

func (o outcomeCounter) IncWebhookEvent(_ string, outcome string) { o[outcome]++ }

func newTestService(t *testing.T, store *memoryStore) (*Service, *recordingNotifier, outcomeCounter) {
	t.Helper()
	notifier := &recordingNotifier{}
	counter := outcomeCounter{}
	svc, err := NewService(ServiceParams{
		Store:    store,
		Notifier: notifier,
		Metrics:  counter,
		Now:      func() time.Time { return time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, notifier, counter
}

func sessionCompleted(t *testing.T, id string) *stripe.Event {
	evt := rawEvent(t, id, stripe.EventTypeCheckoutSessionCompleted, map[string]any{
		"id": "cs_1", "payment_intent": "pi_1", "metadata": map[string]string{"bookingId": "bk_1"},
	})
	return &evt
}

func intentSucceeded(t *testing.T, id string) *stripe.Event {
	evt := rawEvent(t, id, stripe.EventTypePaymentIntentSucceeded, map[string]any{
		"id": "pi_1", "metadata": map[string]string{"bookingId": "bk_1"},
	})
	return &evt
}

func sessionExpired(t *testing.T, id string) *stripe.Event {
	evt := rawEvent(t, id, stripe.EventTypeCheckoutSessionExpired, map[string]any{
		"id": "cs_1", "metadata": map[string]string{"bookingId": "bk_1"},
	})
	return &evt
}

func TestHandleEventPaidOrderIndependence(t *testing.T) {
	orders := [][]func(*testing.T, string) *stripe.Event{
		{intentSucceeded, sessionCompleted},
		{sessionCompleted, intentSucceeded},
		{sessionCompleted, sessionCompleted, intentSucceeded},
	}

	var finals []bookings.State
	for _, order := range orders {
		store := newMemoryStore("bk_1")
		svc, notifier, _ := newTestService(t, store)
		for i, mk := range order {
			if err := svc.HandleEvent(context.Background(), mk(t, "evt_"+string(rune('a'+i)))); err != nil {
				t.Fatalf("handle: %v", err)
			}
		}
		if len(notifier.results) != 1 {
			t.Fatalf("expected one lifecycle notification, got %d", len(notifier.results))
		}
		finals = append(finals, store.states["bk_1"])
	}
	for i := 1; i < len(finals); i++ {
		if !sameState(finals[i], finals[0]) {
			t.Fatalf("final state differs: %+v vs %+v", finals[i], finals[0])
		}
	}
	if finals[0].PaymentStatus != enums.PaymentStatusPaid || finals[0].Operational != string(enums.ServiceStatusScheduled) {
		t.Fatalf("unexpected final state %+v", finals[0])
	}
}

// sameState compares states by value, including the PaidAt and ExpiredAt
// instants rather than their pointers.
func sameState(a, b bookings.State) bool {
	if !sameInstant(a.PaidAt, b.PaidAt) || !sameInstant(a.ExpiredAt, b.ExpiredAt) {
		return false
	}
	a.PaidAt, b.PaidAt, a.ExpiredAt, b.ExpiredAt = nil, nil, nil, nil
	return a == b
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func TestSameStateComparesInstantsByValue(t *testing.T) {
	first := time.Date(2025, 10, 9, 8, 53, 20, 0, time.UTC)
	second := first.In(time.FixedZone("AEST", 10*60*60))
	a := bookings.State{PaymentStatus: enums.PaymentStatusPaid, PaidAt: &first}
	b := bookings.State{PaymentStatus: enums.PaymentStatusPaid, PaidAt: &second}
	if !sameState(a, b) {
		t.Fatalf("expected equal instants behind distinct pointers to compare equal")
	}
	later := first.Add(time.Second)
	b.PaidAt = &later
	if sameState(a, b) {
		t.Fatalf("expected different paidAt to compare unequal")
	}
	b.PaidAt = nil
	if sameState(a, b) {
		t.Fatalf("expected nil and set paidAt to compare unequal")
	}
}

func TestHandleEventExpiredThenLatePaidIsIgnored(t *testing.T) {
	store := newMemoryStore("bk_1")
	svc, notifier, counter := newTestService(t, store)

	if err := svc.HandleEvent(context.Background(), sessionExpired(t, "evt_1")); err != nil {
		t.Fatalf("expired: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), sessionCompleted(t, "evt_2")); err != nil {
		t.Fatalf("late paid: %v", err)
	}

	final := store.states["bk_1"]
	if final.PaymentStatus != enums.PaymentStatusExpired || final.Operational != string(enums.ServiceStatusCancelled) {
		t.Fatalf("unexpected final state %+v", final)
	}
	if counter[string(bookings.DecisionIgnored)] != 1 || len(notifier.results) != 1 {
		t.Fatalf("unexpected outcomes %v notifications %d", counter, len(notifier.results))
	}
}

func TestHandleEventAcknowledgesUnresolvableReferences(t *testing.T) {
	store := newMemoryStore()
	svc, _, counter := newTestService(t, store)

	if err := svc.HandleEvent(context.Background(), sessionCompleted(t, "evt_1")); err != nil {
		t.Fatalf("unknown record should be acknowledged: %v", err)
	}
	missing := rawEvent(t, "evt_2", stripe.EventTypePaymentIntentSucceeded, map[string]any{"id": "pi_1"})
	if err := svc.HandleEvent(context.Background(), &missing); err != nil {
		t.Fatalf("missing metadata should be acknowledged: %v", err)
	}
	other := stripe.Event{ID: "evt_3", Type: "customer.created"}
	if err := svc.HandleEvent(context.Background(), &other); err != nil {
		t.Fatalf("unrecognized type should be acknowledged: %v", err)
	}

	if len(store.calls) != 1 {
		t.Fatalf("only the event with a record id should reach the store, got %d calls", len(store.calls))
	}
	if counter[outcomeUnknownRecord] != 1 || counter[outcomeMissingReference] != 1 || counter[outcomeUnrecognized] != 1 {
		t.Fatalf("unexpected outcomes %v", counter)
	}
}

func TestHandleEventSurfacesStoreFailure(t *testing.T) {
	store := newMemoryStore("bk_1")
	store.err = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("unavailable"), "firestore transaction")
	svc, notifier, _ := newTestService(t, store)

	err := svc.HandleEvent(context.Background(), sessionCompleted(t, "evt_1"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(notifier.results) != 0 {
		t.Fatal("nothing should be published on store failure")
	}
}

func TestHandleEventUsesEventCreatedTime(t *testing.T) {
	store := newMemoryStore("bk_1")
	svc, _, _ := newTestService(t, store)

	if err := svc.HandleEvent(context.Background(), sessionCompleted(t, "evt_1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	paidAt := store.states["bk_1"].PaidAt
	if paidAt == nil || paidAt.Unix() != 1760000000 {
		t.Fatalf("unexpected paidAt %v", paidAt)
	}
}
