package discounts

import (
	"context"
	"strings"

	"github.com/angelmondragon/southside-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/logger"
	"github.com/angelmondragon/southside-backend/pkg/stripe"
	"github.com/shopspring/decimal"
)

// Messages shown inline next to the discount field.
const (
	MsgInvalidCode  = "Invalid or expired discount code"
	MsgExpired      = "Discount code has expired"
	MsgLimitReached = "Discount code has reached its usage limit"
	MsgUnavailable  = "Unable to validate discount code"
)

// Outcome labels a validation for metrics and logs.
type Outcome string

const (
	OutcomeValid        Outcome = "valid"
	OutcomeEmpty        Outcome = "empty"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeExpired      Outcome = "expired"
	OutcomeLimitReached Outcome = "limit_reached"
	OutcomeUnavailable  Outcome = "unavailable"
)

// Result is the outcome of validating a code against a selection. Amounts are
// in whole currency units.
type Result struct {
	IsValid         bool
	Outcome         Outcome
	BasePrice       decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal
	FinalPrice      decimal.Decimal
	PromotionCodeID string
	CouponID        string
	Error           string
}

type pricer interface {
	PriceFor(ctx context.Context, sel pricing.Selection) (pricing.Price, bool, error)
}

type promotionFinder interface {
	FindActivePromotionCode(ctx context.Context, code string) (*stripe.Promotion, error)
}

type metricsRecorder interface {
	IncDiscountValidation(outcome string)
}

type Validator struct {
	prices     pricer
	promotions promotionFinder
	metrics    metricsRecorder
	logg       *logger.Logger
}

func NewValidator(prices pricer, promotions promotionFinder, metrics metricsRecorder, logg *logger.Logger) *Validator {
	return &Validator{prices: prices, promotions: promotions, metrics: metrics, logg: logg}
}

// Validate checks code against Stripe and prices it against the live price of
// sel. Provider failures produce an invalid Result, never an error; the error
// return is reserved for an invalid selection or a missing price ID.
func (v *Validator) Validate(ctx context.Context, code string, sel pricing.Selection) (Result, error) {
	price, ok, err := v.prices.PriceFor(ctx, sel)
	switch {
	case pkgerrors.HasCode(err, pkgerrors.CodeValidation):
		return Result{}, err
	case err != nil:
		v.logError(ctx, "discount.price_lookup_failed", err)
		return v.finish(Result{Outcome: OutcomeUnavailable, Error: MsgUnavailable}), nil
	case !ok:
		return Result{}, pkgerrors.New(pkgerrors.CodeConfiguration, "price not configured for "+sel.String())
	}

	base := price.Amount()
	res := Result{BasePrice: base, FinalPrice: base}

	code = strings.TrimSpace(code)
	if code == "" {
		res.Outcome = OutcomeEmpty
		return v.finish(res), nil
	}

	promo, err := v.promotions.FindActivePromotionCode(ctx, code)
	if err != nil {
		v.logError(ctx, "discount.lookup_failed", err)
		res.Outcome, res.Error = OutcomeUnavailable, MsgUnavailable
		return v.finish(res), nil
	}
	if promo == nil || promo.Coupon == nil {
		res.Outcome, res.Error = OutcomeNotFound, MsgInvalidCode
		return v.finish(res), nil
	}

	coupon := promo.Coupon
	switch {
	case !coupon.Valid:
		res.Outcome, res.Error = OutcomeExpired, MsgExpired
		return v.finish(res), nil
	case exhausted(coupon.MaxRedemptions, coupon.TimesRedeemed),
		exhausted(promo.MaxRedemptions, promo.TimesRedeemed):
		res.Outcome, res.Error = OutcomeLimitReached, MsgLimitReached
		return v.finish(res), nil
	}

	res.DiscountAmount, res.DiscountPercent = Discount(base, coupon.PercentOff, coupon.AmountOff)
	res.FinalPrice = FinalPrice(base, res.DiscountAmount)
	res.IsValid = true
	res.Outcome = OutcomeValid
	res.PromotionCodeID = promo.ID
	res.CouponID = coupon.ID
	return v.finish(res), nil
}

// Discount computes the discount amount for a coupon. Percent discounts round
// to whole currency units; fixed discounts convert cents to units.
func Discount(base decimal.Decimal, percentOff float64, amountOffCents int64) (amount, percent decimal.Decimal) {
	switch {
	case percentOff > 0:
		percent = decimal.NewFromFloat(percentOff)
		amount = base.Mul(percent).Div(decimal.NewFromInt(100)).Round(0)
		return amount, percent
	case amountOffCents > 0:
		return decimal.NewFromInt(amountOffCents).Shift(-2), decimal.Zero
	default:
		return decimal.Zero, decimal.Zero
	}
}

// FinalPrice is base minus discount, clamped at zero.
func FinalPrice(base, discount decimal.Decimal) decimal.Decimal {
	final := base.Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

func exhausted(max, redeemed int64) bool {
	return max > 0 && redeemed >= max
}

func (v *Validator) finish(res Result) Result {
	if v.metrics != nil {
		v.metrics.IncDiscountValidation(string(res.Outcome))
	}
	return res
}

func (v *Validator) logError(ctx context.Context, msg string, err error) {
	if v.logg != nil {
		v.logg.Error(ctx, msg, err)
	}
}
