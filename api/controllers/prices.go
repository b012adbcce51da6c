package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/southside-backend/api/responses"
	"github.com/angelmondragon/southside-backend/internal/pricing"
	"github.com/angelmondragon/southside-backend/internal/servicedates"
	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/logger"
)

type priceCatalog interface {
	Catalog(ctx context.Context) (pricing.Catalog, error)
}

type pricesResponse struct {
	pricing.Catalog
	Currency      string `json:"currency"`
	ServiceWindow string `json:"serviceWindow"`
	// Note tells clients that only Price is charged.
	Note string `json:"note"`
}

// Prices lists live Stripe prices next to the static display table. Live
// lookups that fail leave price null rather than failing the request.
func Prices(catalog priceCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if catalog == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}

		out, err := catalog.Catalog(ctx)
		if err != nil && logg != nil {
			logg.Error(ctx, "prices.live_lookup_failed", err)
		}

		responses.WriteSuccess(w, pricesResponse{
			Catalog:       out,
			Currency:      "aud",
			ServiceWindow: servicedates.Window,
			Note:          "displayPrice is indicative; price is the amount charged at checkout",
		})
	}
}
