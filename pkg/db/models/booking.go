package models

import (
	"time"

	"github.com/angelmondragon/southside-backend/pkg/enums"
	"github.com/angelmondragon/southside-backend/pkg/types"
)

// Booking is a one-time bin clean. The same struct is written to the
// Firestore "bookings" collection and the SQL bookings table.
type Booking struct {
	ID string `gorm:"column:id;primaryKey" firestore:"-" json:"id"`

	Name           string                `gorm:"column:name;not null" firestore:"name" json:"name"`
	Email          string                `gorm:"column:email;not null" firestore:"email" json:"email"`
	Phone          string                `gorm:"column:phone;not null" firestore:"phone" json:"phone"`
	Address        string                `gorm:"column:address;not null" firestore:"address" json:"address"`
	AddressDetails *types.AddressDetails `gorm:"column:address_details;type:text" firestore:"addressDetails" json:"addressDetails,omitempty"`
	Notes          string                `gorm:"column:notes" firestore:"notes" json:"notes"`
	WaterAccess    bool                  `gorm:"column:water_access;not null;default:false" firestore:"waterAccess" json:"waterAccess"`
	PowerAccess    bool                  `gorm:"column:power_access;not null;default:false" firestore:"powerAccess" json:"powerAccess"`

	Bins                 int       `gorm:"column:bins;not null" firestore:"bins" json:"bins"`
	ServiceDate          time.Time `gorm:"column:service_date;not null" firestore:"serviceDate" json:"serviceDate"`
	ServiceDateFormatted string    `gorm:"column:service_date_formatted;not null" firestore:"serviceDateFormatted" json:"serviceDateFormatted"`
	ServiceDateISO       string    `gorm:"column:service_date_iso;not null" firestore:"serviceDateISO" json:"serviceDateISO"`
	DiscountCode         *string   `gorm:"column:discount_code" firestore:"discountCode" json:"discountCode,omitempty"`

	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;index" firestore:"paymentStatus" json:"paymentStatus"`
	ServiceStatus enums.ServiceStatus `gorm:"column:service_status;not null" firestore:"serviceStatus" json:"serviceStatus"`

	StripeSessionID string     `gorm:"column:stripe_session_id" firestore:"stripeSessionId,omitempty" json:"stripeSessionId,omitempty"`
	PaymentIntentID string     `gorm:"column:payment_intent_id" firestore:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	ChargeID        string     `gorm:"column:charge_id" firestore:"chargeId,omitempty" json:"chargeId,omitempty"`
	PaidAt          *time.Time `gorm:"column:paid_at" firestore:"paidAt,omitempty" json:"paidAt,omitempty"`
	ExpiredAt       *time.Time `gorm:"column:expired_at" firestore:"expiredAt,omitempty" json:"expiredAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" firestore:"createdAt" json:"createdAt"`
}

func (Booking) TableName() string { return "bookings" }
