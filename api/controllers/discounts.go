package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/southside-backend/api/responses"
	"github.com/angelmondragon/southside-backend/api/validators"
	"github.com/angelmondragon/southside-backend/internal/discounts"
	"github.com/angelmondragon/southside-backend/internal/pricing"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/logger"
)

type discountValidator interface {
	Validate(ctx context.Context, code string, sel pricing.Selection) (discounts.Result, error)
}

type validateDiscountRequest struct {
	Code string `json:"code" validate:"max=64"`
	Bins int    `json:"bins" validate:"omitempty,oneof=1 2 3"`
	Plan string `json:"plan" validate:"omitempty,oneof=weekly fortnightly"`
}

type validateDiscountResponse struct {
	IsValid         bool     `json:"isValid"`
	BasePrice       float64  `json:"basePrice"`
	DiscountAmount  float64  `json:"discountAmount"`
	DiscountPercent *float64 `json:"discountPercent"`
	FinalPrice      float64  `json:"finalPrice"`
	PromotionCodeID string   `json:"promotionCodeId,omitempty"`
	CouponID        string   `json:"couponId,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// ValidateDiscount prices a discount code against a package or plan. An
// unusable code is a 200 with isValid=false.
func ValidateDiscount(validator discountValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if validator == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount validator unavailable"))
			return
		}

		var payload validateDiscountRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var sel pricing.Selection
		switch {
		case payload.Bins != 0 && payload.Plan != "":
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "send either bins or plan, not both"))
			return
		case payload.Plan != "":
			sel = pricing.ForPlan(enums.Plan(payload.Plan))
		case payload.Bins != 0:
			sel = pricing.ForBins(payload.Bins)
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "bins or plan is required"))
			return
		}

		res, err := validator.Validate(ctx, validators.SanitizeString(payload.Code, 64), sel)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newValidateDiscountResponse(res))
	}
}

func newValidateDiscountResponse(res discounts.Result) validateDiscountResponse {
	out := validateDiscountResponse{
		IsValid:         res.IsValid,
		BasePrice:       res.BasePrice.InexactFloat64(),
		DiscountAmount:  res.DiscountAmount.InexactFloat64(),
		FinalPrice:      res.FinalPrice.InexactFloat64(),
		PromotionCodeID: res.PromotionCodeID,
		CouponID:        res.CouponID,
		Error:           res.Error,
	}
	if res.DiscountPercent.IsPositive() {
		p := res.DiscountPercent.InexactFloat64()
		out.DiscountPercent = &p
	}
	return out
}
