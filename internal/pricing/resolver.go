package pricing

import (
	"context"
	"strings"

	"github.com/angelmondragon/southside-backend/pkg/config"
	"github.com/angelmondragon/southside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// displayPrices are the whole-dollar amounts shown before live prices load.
// They are never charged.
var displayPrices = map[int]int64{1: 20, 2: 40, 3: 50}

// DisplayPrice returns the static label for a bin count.
func DisplayPrice(bins int) (decimal.Decimal, bool) {
	v, ok := displayPrices[bins]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(v), true
}

type priceRetriever interface {
	RetrievePrice(ctx context.Context, priceID string) (int64, error)
}

// Price is a live Stripe price.
type Price struct {
	PriceID string
	// UnitAmount is in cents.
	UnitAmount int64
}

// Amount is the price in whole currency units.
func (p Price) Amount() decimal.Decimal {
	return decimal.NewFromInt(p.UnitAmount).Shift(-2)
}

// Resolver maps selections to the configured Stripe price IDs.
type Resolver struct {
	stripe   priceRetriever
	priceIDs map[Selection]string
}

func NewResolver(cfg config.StripeConfig, stripe priceRetriever) *Resolver {
	ids := map[Selection]string{
		ForBins(1):                     cfg.PriceOneBin,
		ForBins(2):                     cfg.PriceTwoBins,
		ForBins(3):                     cfg.PriceThreeBins,
		ForPlan(enums.PlanWeekly):      cfg.PriceSubWeekly,
		ForPlan(enums.PlanFortnightly): cfg.PriceSubFortnightly,
	}
	for sel, id := range ids {
		ids[sel] = strings.TrimSpace(id)
	}
	return &Resolver{stripe: stripe, priceIDs: ids}
}

// PriceID returns the configured price ID, or false when none is set.
func (r *Resolver) PriceID(sel Selection) (string, bool) {
	if r == nil {
		return "", false
	}
	id := r.priceIDs[sel]
	return id, id != ""
}

// PriceFor fetches the live price for sel. An unconfigured price ID is
// reported as absent, never as a fallback amount.
func (r *Resolver) PriceFor(ctx context.Context, sel Selection) (Price, bool, error) {
	if err := sel.Validate(); err != nil {
		return Price{}, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	id, ok := r.PriceID(sel)
	if !ok {
		return Price{}, false, nil
	}
	if r.stripe == nil {
		return Price{}, false, pkgerrors.New(pkgerrors.CodeDependency, "stripe client unavailable")
	}
	amount, err := r.stripe.RetrievePrice(ctx, id)
	if err != nil {
		return Price{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve stripe price")
	}
	return Price{PriceID: id, UnitAmount: amount}, true, nil
}
