package config

const EnvPrefix = "SOUTHSIDE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverFirestore = "firestore"
	StoreDriverPostgres  = "postgres"
	StoreDriverSQLite    = "sqlite"
)

const (
	EnvAppEnv        = "SOUTHSIDE_APP_ENV"
	EnvPort          = "SOUTHSIDE_APP_PORT"
	EnvSiteURL       = "SOUTHSIDE_SITE_URL"
	EnvTimezone      = "SOUTHSIDE_TIMEZONE"
	EnvStoreDriver   = "SOUTHSIDE_STORE_DRIVER"
	EnvDBDSN         = "SOUTHSIDE_DB_DSN"
	EnvGCPProjectID  = "SOUTHSIDE_GCP_PROJECT_ID"
	EnvRedisURL      = "SOUTHSIDE_REDIS_URL"
	EnvStripeAPIKey  = "SOUTHSIDE_STRIPE_API_KEY"
	EnvStripeSecret  = "SOUTHSIDE_STRIPE_WEBHOOK_SECRET"
	EnvStripePrice1  = "SOUTHSIDE_STRIPE_PRICE_ID_1_BIN"
	EnvStripePrice2  = "SOUTHSIDE_STRIPE_PRICE_ID_2_BINS"
	EnvStripePrice3  = "SOUTHSIDE_STRIPE_PRICE_ID_3_BINS"
	EnvCORSOrigins   = "SOUTHSIDE_CORS_ALLOWED_ORIGINS"
	EnvWebhookTTL    = "SOUTHSIDE_WEBHOOK_IDEMPOTENCY_TTL"
	EnvDiscountLimit = "SOUTHSIDE_RATE_LIMIT_DISCOUNT_LIMIT"
)
