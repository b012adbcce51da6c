package bookings

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/southside-backend/pkg/db/models"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// casAttempts bounds how often ApplyTransition re-reads a row whose status
// moved underneath it.
const casAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SQLStore keeps records in the bookings and subscription_intents tables.
type SQLStore struct {
	db *gorm.DB
	tx txRunner
}

func NewSQLStore(db *gorm.DB, tx txRunner) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("gorm db required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	return &SQLStore{db: db, tx: tx}, nil
}

func (s *SQLStore) CreateBooking(ctx context.Context, booking *models.Booking) (string, error) {
	if booking == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "booking required")
	}
	booking.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(booking).Error; err != nil {
		booking.ID = ""
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}
	return booking.ID, nil
}

func (s *SQLStore) CreateSubscriptionIntent(ctx context.Context, intent *models.SubscriptionIntent) (string, error) {
	if intent == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "subscription intent required")
	}
	intent.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(intent).Error; err != nil {
		intent.ID = ""
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription intent")
	}
	return intent.ID, nil
}

func (s *SQLStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, sqlReadErr(enums.RecordKindBooking, id, err)
	}
	return &booking, nil
}

func (s *SQLStore) GetSubscriptionIntent(ctx context.Context, id string) (*models.SubscriptionIntent, error) {
	var intent models.SubscriptionIntent
	if err := s.db.WithContext(ctx).First(&intent, "id = ?", id).Error; err != nil {
		return nil, sqlReadErr(enums.RecordKindSubscription, id, err)
	}
	return &intent, nil
}

// ApplyTransition reads the row and writes the new state guarded by the
// payment status it observed. A lost race re-reads and re-decides.
func (s *SQLStore) ApplyTransition(ctx context.Context, kind enums.RecordKind, id string, t Transition) (Result, error) {
	if strings.TrimSpace(id) == "" {
		return Result{}, notFound(kind, id)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		var (
			result Result
			lost   bool
		)
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			current, err := loadState(tx, kind, id)
			if err != nil {
				return err
			}

			next, decision, err := Apply(kind, current, t)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply transition")
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
				return nil
			}

			updates := map[string]any{}
			for _, c := range Diff(current, next) {
				updates[sqlColumn(kind, c.Field)] = c.Value
			}
			res := tx.Model(modelFor(kind)).
				Where("id = ? AND payment_status = ?", id, string(current.PaymentStatus)).
				Updates(updates)
			if res.Error != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update "+string(kind))
			}
			lost = res.RowsAffected == 0
			return nil
		})
		if err != nil {
			return Result{}, err
		}
		if !lost {
			return result, nil
		}
	}
	return Result{}, pkgerrors.New(pkgerrors.CodeConflict, "record changed concurrently; retry")
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func loadState(tx *gorm.DB, kind enums.RecordKind, id string) (State, error) {
	if kind == enums.RecordKindSubscription {
		var intent models.SubscriptionIntent
		if err := tx.First(&intent, "id = ?", id).Error; err != nil {
			return State{}, sqlReadErr(kind, id, err)
		}
		return subscriptionState(&intent), nil
	}
	var booking models.Booking
	if err := tx.First(&booking, "id = ?", id).Error; err != nil {
		return State{}, sqlReadErr(kind, id, err)
	}
	return bookingState(&booking), nil
}

func modelFor(kind enums.RecordKind) any {
	if kind == enums.RecordKindSubscription {
		return &models.SubscriptionIntent{}
	}
	return &models.Booking{}
}

func sqlReadErr(kind enums.RecordKind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+string(kind))
}
