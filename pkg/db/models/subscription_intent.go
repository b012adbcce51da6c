package models

import (
	"time"

	"github.com/angelmondragon/southside-backend/pkg/enums"
	"github.com/angelmondragon/southside-backend/pkg/types"
)

// SubscriptionIntentBins is the fixed bin count of every subscription plan.
const SubscriptionIntentBins = 2

// SubscriptionIntent records a customer heading to subscription checkout.
// Stored in the Firestore "subscriptions" collection or the
// subscription_intents table.
type SubscriptionIntent struct {
	ID string `gorm:"column:id;primaryKey" firestore:"-" json:"id"`

	Name           string                `gorm:"column:name;not null" firestore:"name" json:"name"`
	Email          string                `gorm:"column:email;not null" firestore:"email" json:"email"`
	Phone          string                `gorm:"column:phone;not null" firestore:"phone" json:"phone"`
	Address        string                `gorm:"column:address;not null" firestore:"address" json:"address"`
	AddressDetails *types.AddressDetails `gorm:"column:address_details;type:text" firestore:"addressDetails" json:"addressDetails,omitempty"`
	Notes          string                `gorm:"column:notes" firestore:"notes" json:"notes"`

	Plan         enums.Plan `gorm:"column:plan;not null" firestore:"plan" json:"plan"`
	Bins         int        `gorm:"column:bins;not null" firestore:"bins" json:"bins"`
	Cadence      string     `gorm:"column:cadence;not null" firestore:"cadence" json:"cadence"`
	StartDateISO *string    `gorm:"column:start_date_iso" firestore:"startDateISO" json:"startDateISO,omitempty"`
	DiscountCode *string    `gorm:"column:discount_code" firestore:"discountCode" json:"discountCode,omitempty"`

	PaymentStatus      enums.PaymentStatus      `gorm:"column:payment_status;not null;index" firestore:"paymentStatus" json:"paymentStatus"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;not null" firestore:"subscriptionStatus" json:"subscriptionStatus"`

	StripeSessionID      string     `gorm:"column:stripe_session_id" firestore:"stripeSessionId,omitempty" json:"stripeSessionId,omitempty"`
	StripeSubscriptionID string     `gorm:"column:stripe_subscription_id" firestore:"stripeSubscriptionId,omitempty" json:"stripeSubscriptionId,omitempty"`
	PaymentIntentID      string     `gorm:"column:payment_intent_id" firestore:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	ChargeID             string     `gorm:"column:charge_id" firestore:"chargeId,omitempty" json:"chargeId,omitempty"`
	PaidAt               *time.Time `gorm:"column:paid_at" firestore:"paidAt,omitempty" json:"paidAt,omitempty"`
	ExpiredAt            *time.Time `gorm:"column:expired_at" firestore:"expiredAt,omitempty" json:"expiredAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" firestore:"createdAt" json:"createdAt"`
}

func (SubscriptionIntent) TableName() string { return "subscription_intents" }
