package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/southside-backend/api/responses"
	"github.com/angelmondragon/southside-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/southside-backend/internal/checkout"
	"github.com/angelmondragon/southside-backend/internal/servicedates"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/logger"
	"github.com/angelmondragon/southside-backend/pkg/types"
)

type customerFields struct {
	Name           string                `json:"name" validate:"required,min=2,max=100"`
	Email          string                `json:"email" validate:"required,email,max=254"`
	Phone          string                `json:"phone" validate:"required,auphone"`
	Address        string                `json:"address" validate:"required,min=5,max=300"`
	AddressDetails *types.AddressDetails `json:"addressDetails,omitempty"`
	Notes          *string               `json:"notes,omitempty" validate:"omitempty,max=1000"`
	DiscountCode   *string               `json:"discountCode,omitempty" validate:"omitempty,max=64"`
}

type oneTimeCheckoutRequest struct {
	customerFields
	Bins        int    `json:"bins" validate:"required,oneof=1 2 3"`
	ServiceDate string `json:"serviceDate" validate:"required"`
	WaterAccess bool   `json:"waterAccess"`
	PowerAccess bool   `json:"powerAccess"`
}

type subscriptionCheckoutRequest struct {
	customerFields
	Plan      string  `json:"plan" validate:"required,oneof=weekly fortnightly"`
	StartDate *string `json:"startDate,omitempty"`
}

func (c customerFields) customer() checkoutsvc.Customer {
	out := checkoutsvc.Customer{
		Name:    validators.SanitizeString(c.Name, 100),
		Email:   validators.SanitizeString(c.Email, 254),
		Phone:   validators.NormalizePhone(c.Phone),
		Address: validators.SanitizeString(c.Address, 300),
		Notes:   validators.SanitizeOptional(c.Notes, 1000),
	}
	if c.AddressDetails != nil && !c.AddressDetails.IsZero() {
		out.AddressDetails = c.AddressDetails
	}
	return out
}

// CheckoutOneTime creates a pending booking and returns the Stripe Checkout
// URL the browser should follow.
func CheckoutOneTime(svc checkoutsvc.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload oneTimeCheckoutRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		serviceDate, err := servicedates.Parse(payload.ServiceDate, loc)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "serviceDate must be an RFC 3339 timestamp or YYYY-MM-DD").
				WithDetails(map[string]string{"serviceDate": "is invalid"}))
			return
		}

		sess, err := svc.StartOneTime(ctx, checkoutsvc.OneTimeInput{
			Customer:     payload.customer(),
			Bins:         payload.Bins,
			ServiceDate:  serviceDate,
			DiscountCode: validators.SanitizeOptional(payload.DiscountCode, 64),
			WaterAccess:  payload.WaterAccess,
			PowerAccess:  payload.PowerAccess,
			Origin:       r.Header.Get("Origin"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sess)
	}
}

// CheckoutSubscription creates a pending subscription intent and its
// subscription-mode Checkout session.
func CheckoutSubscription(svc checkoutsvc.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload subscriptionCheckoutRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var start *time.Time
		if raw := validators.SanitizeOptional(payload.StartDate, 64); raw != "" {
			parsed, err := servicedates.Parse(raw, loc)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "startDate must be an RFC 3339 timestamp or YYYY-MM-DD").
					WithDetails(map[string]string{"startDate": "is invalid"}))
				return
			}
			start = &parsed
		}

		sess, err := svc.StartSubscription(ctx, checkoutsvc.SubscriptionInput{
			Customer:     payload.customer(),
			Plan:         enums.Plan(payload.Plan),
			StartDate:    start,
			DiscountCode: validators.SanitizeOptional(payload.DiscountCode, 64),
			Origin:       r.Header.Get("Origin"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sess)
	}
}
