package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/southside-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/southside-backend/api/controllers/webhooks"
	"github.com/angelmondragon/southside-backend/api/middleware"
	"github.com/angelmondragon/southside-backend/internal/address"
	checkoutsvc "github.com/angelmondragon/southside-backend/internal/checkout"
	"github.com/angelmondragon/southside-backend/internal/discounts"
	"github.com/angelmondragon/southside-backend/internal/pricing"
	stripewebhook "github.com/angelmondragon/southside-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/southside-backend/pkg/config"
	"github.com/angelmondragon/southside-backend/pkg/logger"
	"github.com/angelmondragon/southside-backend/pkg/redis"
)

type PriceCatalog interface {
	Catalog(ctx context.Context) (pricing.Catalog, error)
}

type DiscountValidator interface {
	Validate(ctx context.Context, code string, sel pricing.Selection) (discounts.Result, error)
}

type EventVerifier interface {
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// Deps carries everything the router wires into handlers. Address, Redis,
// WebhookGuard and Metrics are optional.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time

	Store controllers.Pinger
	Redis *redis.Client

	Prices       PriceCatalog
	Discounts    DiscountValidator
	Checkout     checkoutsvc.Service
	Address      address.Service
	Webhooks     webhookcontrollers.StripeWebhookService
	WebhookGuard *stripewebhook.IdempotencyGuard
	Verifier     EventVerifier

	Metrics http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	var (
		idempotencyStore redis.IdempotencyStore
		limiter          redis.RateLimiter
		redisPing        controllers.Pinger
	)
	if d.Redis != nil {
		idempotencyStore, limiter, redisPing = d.Redis, d.Redis, d.Redis
	}

	discountPolicy := middleware.NewRateLimitPolicy("discount", cfg.RateLimit.DiscountWindow, cfg.RateLimit.DiscountLimit)
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutLimit)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, map[string]controllers.Pinger{
			"store": d.Store,
			"redis": redisPing,
		}, logg))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/prices", controllers.Prices(d.Prices, logg))
		r.Get("/service-dates", controllers.ServiceDates(d.Location, d.Now, logg))

		validateDiscount := r.With(middleware.RateLimit(discountPolicy, limiter, logg))
		validateDiscount.Post("/discounts/validate", controllers.ValidateDiscount(d.Discounts, logg))
		// Older site builds post here.
		validateDiscount.Post("/validate-discount", controllers.ValidateDiscount(d.Discounts, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/confirmation", controllers.CheckoutConfirmation(logg))
			r.Group(func(r chi.Router) {
				r.Use(
					middleware.RateLimit(checkoutPolicy, limiter, logg),
					middleware.Idempotency(idempotencyStore, logg),
				)
				r.Post("/one-time", controllers.CheckoutOneTime(d.Checkout, d.Location, logg))
				r.Post("/subscription", controllers.CheckoutSubscription(d.Checkout, d.Location, logg))
			})
		})

		r.Route("/address", func(r chi.Router) {
			r.Get("/suggest", controllers.AddressSuggest(d.Address, logg))
			r.Post("/resolve", controllers.AddressResolve(d.Address, logg))
		})

		stripeWebhook := webhookcontrollers.StripeWebhook(d.Webhooks, d.Verifier, d.WebhookGuard, logg)
		r.Post("/webhooks/stripe", stripeWebhook)
		r.Post("/webhooks/payments", stripeWebhook)
	})

	return r
}
