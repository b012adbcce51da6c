package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	CORS       CORSConfig
	Store      StoreConfig
	DB         DBConfig
	GCP        GCPConfig
	Redis      RedisConfig
	Stripe     StripeConfig
	GoogleMaps GoogleMapsConfig
	PubSub     PubSubConfig
	RateLimit  RateLimitConfig
	Webhook    WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesSQL() && cfg.Store.Driver == StoreDriverPostgres && strings.TrimSpace(cfg.DB.DSN) == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvStoreDriver, StoreDriverPostgres)
	}
	if cfg.Store.Driver == StoreDriverFirestore && strings.TrimSpace(cfg.GCP.ProjectID) == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvStoreDriver, StoreDriverFirestore)
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOUTHSIDE_APP_ENV" required:"true"`
	Port         string `envconfig:"SOUTHSIDE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SOUTHSIDE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOUTHSIDE_LOG_WARN_STACK" default:"false"`
	SiteURL      string `envconfig:"SOUTHSIDE_SITE_URL" required:"true"`
	Timezone     string `envconfig:"SOUTHSIDE_TIMEZONE" default:"Australia/Brisbane"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the service timezone used for service dates.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SOUTHSIDE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type StoreConfig struct {
	Driver string `envconfig:"SOUTHSIDE_STORE_DRIVER" default:"firestore"`
}

// UsesSQL reports whether records live in a gorm-backed database.
func (s StoreConfig) UsesSQL() bool {
	return s.Driver == StoreDriverPostgres || s.Driver == StoreDriverSQLite
}

func (s *StoreConfig) validate() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case StoreDriverFirestore, StoreDriverPostgres, StoreDriverSQLite:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvStoreDriver, StoreDriverFirestore, StoreDriverPostgres, StoreDriverSQLite)
	}
}

type DBConfig struct {
	DSN        string `envconfig:"SOUTHSIDE_DB_DSN"`
	SQLitePath string `envconfig:"SOUTHSIDE_DB_SQLITE_PATH" default:"southside.db"`

	MaxOpenConns    int           `envconfig:"SOUTHSIDE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SOUTHSIDE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SOUTHSIDE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOUTHSIDE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	AutoMigrate     bool          `envconfig:"SOUTHSIDE_DB_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID           string `envconfig:"SOUTHSIDE_GCP_PROJECT_ID"`
	CredentialsJSON     string `envconfig:"SOUTHSIDE_GCP_CREDENTIALS_JSON"`
	FirestoreDatabaseID string `envconfig:"SOUTHSIDE_FIRESTORE_DATABASE_ID" default:"(default)"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOUTHSIDE_REDIS_URL"`
	Address      string        `envconfig:"SOUTHSIDE_REDIS_ADDR"`
	Password     string        `envconfig:"SOUTHSIDE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOUTHSIDE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOUTHSIDE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOUTHSIDE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOUTHSIDE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOUTHSIDE_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SOUTHSIDE_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a Redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type StripeConfig struct {
	APIKey        string `envconfig:"SOUTHSIDE_STRIPE_API_KEY" required:"true"`
	WebhookSecret string `envconfig:"SOUTHSIDE_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"SOUTHSIDE_STRIPE_ENV" default:"test"`

	PriceOneBin         string `envconfig:"SOUTHSIDE_STRIPE_PRICE_ID_1_BIN"`
	PriceTwoBins        string `envconfig:"SOUTHSIDE_STRIPE_PRICE_ID_2_BINS"`
	PriceThreeBins      string `envconfig:"SOUTHSIDE_STRIPE_PRICE_ID_3_BINS"`
	PriceSubWeekly      string `envconfig:"SOUTHSIDE_STRIPE_PRICE_ID_SUB_2_BINS_WEEKLY"`
	PriceSubFortnightly string `envconfig:"SOUTHSIDE_STRIPE_PRICE_ID_SUB_2_BINS_FORTNIGHTLY"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GoogleMapsConfig struct {
	APIKey  string `envconfig:"SOUTHSIDE_GOOGLE_MAPS_API_KEY"`
	Country string `envconfig:"SOUTHSIDE_GOOGLE_MAPS_COUNTRY" default:"AU"`
}

type PubSubConfig struct {
	BookingEventsTopic string `envconfig:"SOUTHSIDE_PUBSUB_BOOKING_EVENTS_TOPIC"`
}

type RateLimitConfig struct {
	DiscountWindow time.Duration `envconfig:"SOUTHSIDE_RATE_LIMIT_DISCOUNT_WINDOW" default:"1m"`
	DiscountLimit  int           `envconfig:"SOUTHSIDE_RATE_LIMIT_DISCOUNT_LIMIT" default:"30"`
	CheckoutWindow time.Duration `envconfig:"SOUTHSIDE_RATE_LIMIT_CHECKOUT_WINDOW" default:"5m"`
	CheckoutLimit  int           `envconfig:"SOUTHSIDE_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SOUTHSIDE_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}
