package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Lifecycle    LifecycleConfig
	Ledger       LedgerConfig
	Cron         CronConfig
}

const defaultSQLiteDSN = "file:mythra.db?cache=shared&_foreign_keys=on"

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = defaultSQLiteDSN
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Lifecycle.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MYTHRA_APP_ENV" required:"true"`
	Port         string `envconfig:"MYTHRA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MYTHRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MYTHRA_LOG_WARN_STACK" default:"false"`

	// CORSOrigins is a comma separated allow-list; empty means local dev origins.
	CORSOrigins []string `envconfig:"MYTHRA_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MYTHRA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MYTHRA_DB_DSN"`
	Driver string `envconfig:"MYTHRA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MYTHRA_DB_HOST"`
	LegacyPort     int    `envconfig:"MYTHRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MYTHRA_DB_USER"`
	LegacyPassword string `envconfig:"MYTHRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MYTHRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MYTHRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MYTHRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MYTHRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MYTHRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MYTHRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MYTHRA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MYTHRA_REDIS_ADDR"`
	Password     string        `envconfig:"MYTHRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MYTHRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MYTHRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MYTHRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MYTHRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MYTHRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MYTHRA_REDIS_WRITE_TIMEOUT" default:"5s"`

	IdempotencyTTL time.Duration `envconfig:"MYTHRA_REDIS_IDEMPOTENCY_TTL" default:"24h"`
	VoteRateLimit  int           `envconfig:"MYTHRA_REDIS_VOTE_RATE_LIMIT" default:"30"`
	VoteRateWindow time.Duration `envconfig:"MYTHRA_REDIS_VOTE_RATE_WINDOW" default:"1m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MYTHRA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MYTHRA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MYTHRA_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MYTHRA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MYTHRA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"MYTHRA_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"MYTHRA_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	LifecycleTopic string `envconfig:"MYTHRA_PUBSUB_LIFECYCLE_TOPIC" default:"mythra-lifecycle-events"`
	PayoutsTopic   string `envconfig:"MYTHRA_PUBSUB_PAYOUTS_TOPIC" default:"mythra-payout-events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"MYTHRA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"MYTHRA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"MYTHRA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"MYTHRA_OUTBOX_RETENTION" default:"720h"`
}

// maxPayoutRoundingPlaces is the scale of the numeric(20,9) SOL columns.
const maxPayoutRoundingPlaces = 9

// LifecycleConfig tunes the event lifecycle and payout math.
type LifecycleConfig struct {
	// AllowEmptyDAO lets an event leave dao_process when nobody invested.
	AllowEmptyDAO bool `envconfig:"MYTHRA_LIFECYCLE_ALLOW_EMPTY_DAO" default:"false"`
	// AutoAdvanceOnVote moves an event to selling_tickets when the last ballot lands.
	AutoAdvanceOnVote    bool   `envconfig:"MYTHRA_LIFECYCLE_AUTO_ADVANCE_ON_VOTE" default:"true"`
	PlatformFeePercent   string `envconfig:"MYTHRA_LIFECYCLE_PLATFORM_FEE_PERCENT" default:"5"`
	PayoutRoundingPlaces int32  `envconfig:"MYTHRA_LIFECYCLE_PAYOUT_ROUNDING_PLACES" default:"9"`
}

// PlatformFee parses the configured platform fee percentage.
func (l LifecycleConfig) PlatformFee() decimal.Decimal {
	fee, err := decimal.NewFromString(strings.TrimSpace(l.PlatformFeePercent))
	if err != nil {
		return decimal.NewFromInt(5)
	}
	return fee
}

func (l LifecycleConfig) validate() error {
	fee, err := decimal.NewFromString(strings.TrimSpace(l.PlatformFeePercent))
	if err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvLifecyclePlatformFee, err)
	}
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%s must be between 0 and 100", EnvLifecyclePlatformFee)
	}
	if l.PayoutRoundingPlaces < 1 || l.PayoutRoundingPlaces > maxPayoutRoundingPlaces {
		return fmt.Errorf("%s must be between 1 and %d", EnvLifecycleRoundingPlaces, maxPayoutRoundingPlaces)
	}
	return nil
}

type LedgerConfig struct {
	Mode            string        `envconfig:"MYTHRA_LEDGER_MODE" default:"simulated"`
	Cluster         string        `envconfig:"MYTHRA_LEDGER_CLUSTER" default:"devnet"`
	TransferRetries uint64        `envconfig:"MYTHRA_LEDGER_TRANSFER_RETRIES" default:"3"`
	RetryBaseDelay  time.Duration `envconfig:"MYTHRA_LEDGER_RETRY_BASE_DELAY" default:"200ms"`
	RetryMaxDelay   time.Duration `envconfig:"MYTHRA_LEDGER_RETRY_MAX_DELAY" default:"5s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MYTHRA_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"MYTHRA_CRON_LOCK_TTL" default:"5m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
