package checkout

import (
	"time"

	"github.com/angelmondragon/southside-backend/pkg/enums"
	"github.com/angelmondragon/southside-backend/pkg/types"
)

// Customer holds the contact fields collected by the booking form.
type Customer struct {
	Name           string
	Email          string
	Phone          string
	Address        string
	Notes          string
	AddressDetails *types.AddressDetails
}

// OneTimeInput starts a single-visit booking checkout.
type OneTimeInput struct {
	Customer
	Bins         int
	ServiceDate  time.Time
	DiscountCode string
	WaterAccess  bool
	PowerAccess  bool
	// Origin is the caller's Origin header, used for the redirect URLs when
	// it is allow-listed.
	Origin string
}

// SubscriptionInput starts a recurring plan checkout.
type SubscriptionInput struct {
	Customer
	Plan         enums.Plan
	StartDate    *time.Time
	DiscountCode string
	Origin       string
}

// Session is returned to the browser, which redirects to URL.
type Session struct {
	Kind      enums.RecordKind `json:"kind"`
	RecordID  string           `json:"recordId"`
	SessionID string           `json:"sessionId"`
	URL       string           `json:"url"`
}
