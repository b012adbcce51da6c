package bookings

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/angelmondragon/southside-backend/pkg/db/models"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// documents is the part of Firestore the store talks to. Errors keep the
// gRPC status the client returned so NotFound can be told apart.
type documents interface {
	Add(ctx context.Context, collection string, data any) (string, error)
	Get(ctx context.Context, collection, id string, dest any) error
	// Transact runs fn against one document inside a transaction. fn decodes
	// the current document through read and returns the updates to write.
	Transact(ctx context.Context, collection, id string, fn func(read func(dest any) error) ([]firestore.Update, error)) error
	Ping(ctx context.Context) error
}

type clientDocuments struct {
	fs *firestore.Client
}

func (d clientDocuments) Add(ctx context.Context, collection string, data any) (string, error) {
	ref, _, err := d.fs.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (d clientDocuments) Get(ctx context.Context, collection, id string, dest any) error {
	snap, err := d.fs.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return err
	}
	return snap.DataTo(dest)
}

func (d clientDocuments) Transact(ctx context.Context, collection, id string, fn func(read func(dest any) error) ([]firestore.Update, error)) error {
	ref := d.fs.Collection(collection).Doc(id)
	return d.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updates, err := fn(func(dest any) error {
			snap, err := tx.Get(ref)
			if err != nil {
				return err
			}
			return snap.DataTo(dest)
		})
		if err != nil || len(updates) == 0 {
			return err
		}
		return tx.Update(ref, updates)
	})
}

func (d clientDocuments) Ping(ctx context.Context) error {
	_, err := d.fs.Collection(BookingsCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

// FirestoreStore keeps records in the "bookings" and "subscriptions"
// collections with auto-generated document IDs.
type FirestoreStore struct {
	docs documents
}

func NewFirestoreStore(fs *firestore.Client) (*FirestoreStore, error) {
	if fs == nil {
		return nil, errors.New("firestore client required")
	}
	return &FirestoreStore{docs: clientDocuments{fs: fs}}, nil
}

func (s *FirestoreStore) CreateBooking(ctx context.Context, booking *models.Booking) (string, error) {
	if booking == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "booking required")
	}
	id, err := s.docs.Add(ctx, BookingsCollection, booking)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}
	booking.ID = id
	return id, nil
}

func (s *FirestoreStore) CreateSubscriptionIntent(ctx context.Context, intent *models.SubscriptionIntent) (string, error) {
	if intent == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "subscription intent required")
	}
	id, err := s.docs.Add(ctx, SubscriptionsCollection, intent)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription intent")
	}
	intent.ID = id
	return id, nil
}

func (s *FirestoreStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	if !validDocID(id) {
		return nil, notFound(enums.RecordKindBooking, id)
	}
	var booking models.Booking
	if err := s.docs.Get(ctx, BookingsCollection, id, &booking); err != nil {
		return nil, firestoreReadErr(enums.RecordKindBooking, id, err)
	}
	booking.ID = id
	return &booking, nil
}

func (s *FirestoreStore) GetSubscriptionIntent(ctx context.Context, id string) (*models.SubscriptionIntent, error) {
	if !validDocID(id) {
		return nil, notFound(enums.RecordKindSubscription, id)
	}
	var intent models.SubscriptionIntent
	if err := s.docs.Get(ctx, SubscriptionsCollection, id, &intent); err != nil {
		return nil, firestoreReadErr(enums.RecordKindSubscription, id, err)
	}
	intent.ID = id
	return &intent, nil
}

// ApplyTransition runs inside a Firestore transaction so concurrent webhook
// deliveries for the same document serialize on the read.
func (s *FirestoreStore) ApplyTransition(ctx context.Context, kind enums.RecordKind, id string, t Transition) (Result, error) {
	if !validDocID(id) {
		return Result{}, notFound(kind, id)
	}

	var result Result
	err := s.docs.Transact(ctx, collectionFor(kind), id, func(read func(dest any) error) ([]firestore.Update, error) {
		current, err := readState(kind, read)
		if err != nil {
			return nil, firestoreReadErr(kind, id, err)
		}

		next, decision, err := Apply(kind, current, t)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply transition")
		}
		result = Result{
			Kind:        kind,
			ID:          id,
			Decision:    decision,
			From:        current.PaymentStatus,
			To:          next.PaymentStatus,
			Operational: next.Operational,
		}
		if !decision.Writes() {
			return nil, nil
		}
		return firestoreUpdates(kind, Diff(current, next)), nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return Result{}, err
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "firestore transaction")
	}
	return result, nil
}

func (s *FirestoreStore) Ping(ctx context.Context) error {
	return s.docs.Ping(ctx)
}

func firestoreUpdates(kind enums.RecordKind, changes []Change) []firestore.Update {
	updates := make([]firestore.Update, 0, len(changes))
	for _, c := range changes {
		updates = append(updates, firestore.Update{Path: firestoreField(kind, c.Field), Value: c.Value})
	}
	return updates
}

func firestoreReadErr(kind enums.RecordKind, id string, err error) error {
	if status.Code(err) == codes.NotFound {
		return notFound(kind, id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+string(kind))
}

// validDocID rejects IDs that Firestore would treat as a path.
func validDocID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.Contains(id, "/")
}

func readState(kind enums.RecordKind, read func(dest any) error) (State, error) {
	if kind == enums.RecordKindSubscription {
		var intent models.SubscriptionIntent
		if err := read(&intent); err != nil {
			return State{}, err
		}
		return subscriptionState(&intent), nil
	}
	var booking models.Booking
	if err := read(&booking); err != nil {
		return State{}, err
	}
	return bookingState(&booking), nil
}
