package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/southside-backend/api/controllers"
	"github.com/angelmondragon/southside-backend/api/routes"
	"github.com/angelmondragon/southside-backend/internal/address"
	"github.com/angelmondragon/southside-backend/internal/bookings"
	"github.com/angelmondragon/southside-backend/internal/checkout"
	"github.com/angelmondragon/southside-backend/internal/discounts"
	"github.com/angelmondragon/southside-backend/internal/pricing"
	stripewebhook "github.com/angelmondragon/southside-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/southside-backend/pkg/config"
	"github.com/angelmondragon/southside-backend/pkg/db"
	"github.com/angelmondragon/southside-backend/pkg/firestore"
	"github.com/angelmondragon/southside-backend/pkg/logger"
	"github.com/angelmondragon/southside-backend/pkg/maps"
	"github.com/angelmondragon/southside-backend/pkg/metrics"
	"github.com/angelmondragon/southside-backend/pkg/migrate"
	"github.com/angelmondragon/southside-backend/pkg/pubsub"
	"github.com/angelmondragon/southside-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/southside-backend/pkg/stripe"

	_ "time/tzdata"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	loc, err := cfg.App.Location()
	requireResource(context.Background(), logg, "timezone", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i].Close())
		}
		if errs != nil {
			logg.Error(context.Background(), "error releasing resources", errs)
		}
	}()

	store, storeCloser, err := openStore(ctx, cfg, logg)
	requireResource(ctx, logg, "record store", err)
	closers = append(closers, storeCloser)

	var (
		redisClient *redis.Client
		guard       *stripewebhook.IdempotencyGuard
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		closers = append(closers, redisClient)

		guard, err = stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "stripe-webhook")
		requireResource(ctx, logg, "webhook idempotency guard", err)
	} else {
		logg.Warn(ctx, "redis not configured; rate limits, request idempotency and webhook dedupe are disabled")
	}

	var publisher bookings.Publisher
	if cfg.PubSub.BookingEventsTopic != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		closers = append(closers, psClient)
		if pub := psClient.BookingEventsPublisher(); pub != nil {
			publisher = pub
		}
	}

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	requireResource(ctx, logg, "stripe", err)

	var addressSvc address.Service
	if cfg.GoogleMaps.APIKey != "" {
		placesClient, err := maps.NewClient(cfg.GoogleMaps.APIKey)
		requireResource(ctx, logg, "google maps", err)
		addressSvc = address.NewService(placesClient, cfg.GoogleMaps.Country)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(reg)

	resolver := pricing.NewResolver(cfg.Stripe, stripeClient)

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Prices:         resolver,
		Store:          store,
		Payments:       stripeClient,
		Metrics:        bookingMetrics,
		Logger:         logg,
		SiteURL:        cfg.App.SiteURL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Location:       loc,
	})
	requireResource(ctx, logg, "checkout service", err)

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Store:    store,
		Notifier: bookings.NewNotifier(publisher, logg),
		Metrics:  bookingMetrics,
		Logger:   logg,
	})
	requireResource(ctx, logg, "stripe webhook service", err)

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	srvCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"store_driver": cfg.Store.Driver,
		"stripe_env":   stripeClient.Environment(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			Location:     loc,
			Now:          time.Now,
			Store:        store,
			Redis:        redisClient,
			Prices:       resolver,
			Discounts:    discounts.NewValidator(resolver, stripeClient, bookingMetrics, logg),
			Checkout:     checkoutSvc,
			Address:      addressSvc,
			Webhooks:     webhookSvc,
			WebhookGuard: guard,
			Verifier:     stripeClient,
			Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(srvCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(srvCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(srvCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(srvCtx, "graceful shutdown failed", err)
		}
	}
}

type recordStore interface {
	bookings.Store
	controllers.Pinger
}

// openStore returns the configured record store and the closer for its
// underlying client.
func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (recordStore, io.Closer, error) {
	if cfg.Store.Driver == config.StoreDriverFirestore {
		fsClient, err := firestore.New(ctx, cfg.GCP, logg)
		if err != nil {
			return nil, nil, err
		}
		store, err := bookings.NewFirestoreStore(fsClient.Firestore())
		if err != nil {
			return nil, nil, multierr.Append(err, fsClient.Close())
		}
		return store, fsClient, nil
	}

	dbClient, err := db.New(ctx, cfg.Store.Driver, cfg.DB, logg)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
		return nil, nil, multierr.Append(err, dbClient.Close())
	}
	store, err := bookings.NewSQLStore(dbClient.DB(), dbClient)
	if err != nil {
		return nil, nil, multierr.Append(err, dbClient.Close())
	}
	return store, dbClient, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", name), "failed to initialize "+name, err)
	os.Exit(1)
}
