package pricing

import (
	"context"

	"github.com/angelmondragon/southside-backend/pkg/enums"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// CatalogEntry pairs a selection with its live price and, for packages, the
// static display label.
type CatalogEntry struct {
	Bins         int        `json:"bins"`
	Plan         enums.Plan `json:"plan,omitempty"`
	Price        *float64   `json:"price"`
	DisplayPrice *float64   `json:"displayPrice,omitempty"`
	Configured   bool       `json:"configured"`
}

// Catalog is the response body of GET /prices.
type Catalog struct {
	Packages []CatalogEntry `json:"packages"`
	Plans    []CatalogEntry `json:"plans"`
}

// Catalog resolves every known selection, one live lookup per entry in
// parallel. Entries whose live price cannot be fetched carry a nil Price;
// their errors are combined into the returned error so the caller can log
// them while still serving the display table.
func (r *Resolver) Catalog(ctx context.Context) (Catalog, error) {
	out := Catalog{
		Packages: make([]CatalogEntry, 0, 3),
		Plans:    make([]CatalogEntry, 0, 2),
	}
	var sels []Selection
	for _, bins := range []int{1, 2, 3} {
		entry := CatalogEntry{Bins: bins}
		if display, ok := DisplayPrice(bins); ok {
			v := display.InexactFloat64()
			entry.DisplayPrice = &v
		}
		out.Packages = append(out.Packages, entry)
		sels = append(sels, ForBins(bins))
	}
	for _, plan := range []enums.Plan{enums.PlanWeekly, enums.PlanFortnightly} {
		out.Plans = append(out.Plans, CatalogEntry{Bins: 2, Plan: plan})
		sels = append(sels, ForPlan(plan))
	}

	entries := make([]*CatalogEntry, 0, len(sels))
	for i := range out.Packages {
		entries = append(entries, &out.Packages[i])
	}
	for i := range out.Plans {
		entries = append(entries, &out.Plans[i])
	}

	// A failed lookup only blanks its own entry, so goroutines report into
	// errs and never fail the group.
	errs := make([]error, len(sels))
	var g errgroup.Group
	for i, sel := range sels {
		g.Go(func() error {
			errs[i] = r.fill(ctx, sel, entries[i])
			return nil
		})
	}
	_ = g.Wait()
	return out, multierr.Combine(errs...)
}

func (r *Resolver) fill(ctx context.Context, sel Selection, entry *CatalogEntry) error {
	price, ok, err := r.PriceFor(ctx, sel)
	_, entry.Configured = r.PriceID(sel)
	if err != nil || !ok {
		return err
	}
	v := price.Amount().InexactFloat64()
	entry.Price = &v
	return nil
}
