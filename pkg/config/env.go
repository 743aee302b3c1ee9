package config

const (
	EnvPrefix = "MYTHRA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	LedgerModeSimulated = "simulated"

	EnvAppEnv   = "MYTHRA_APP_ENV"
	EnvPort     = "MYTHRA_APP_PORT"
	EnvLogLevel = "MYTHRA_LOG_LEVEL"

	EnvDBDSN  = "MYTHRA_DB_DSN"
	EnvDBHost = "MYTHRA_DB_HOST"
	EnvDBUser = "MYTHRA_DB_USER"
	EnvDBName = "MYTHRA_DB_NAME"

	EnvRedisURL = "MYTHRA_REDIS_URL"

	EnvJWTSecret  = "MYTHRA_JWT_SECRET"
	EnvJWTIssuer  = "MYTHRA_JWT_ISSUER"
	EnvJWTExpMins = "MYTHRA_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID         = "MYTHRA_GCP_PROJECT_ID"
	EnvPubSubLifecycleTopic = "MYTHRA_PUBSUB_LIFECYCLE_TOPIC"
	EnvPubSubPayoutsTopic   = "MYTHRA_PUBSUB_PAYOUTS_TOPIC"

	EnvLifecycleAllowEmptyDAO  = "MYTHRA_LIFECYCLE_ALLOW_EMPTY_DAO"
	EnvLifecyclePlatformFee    = "MYTHRA_LIFECYCLE_PLATFORM_FEE_PERCENT"
	EnvLifecycleRoundingPlaces = "MYTHRA_LIFECYCLE_PAYOUT_ROUNDING_PLACES"

	EnvLedgerMode = "MYTHRA_LEDGER_MODE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
