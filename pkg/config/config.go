package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Pricing      PricingConfig
	Loyalty      LoyaltyConfig
	Archive      ArchiveConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOCALBASKET_APP_ENV" required:"true"`
	Port         string `envconfig:"LOCALBASKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOCALBASKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCALBASKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOCALBASKET_DB_DSN"`
	Driver string `envconfig:"LOCALBASKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOCALBASKET_DB_HOST"`
	LegacyPort     int    `envconfig:"LOCALBASKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOCALBASKET_DB_USER"`
	LegacyPassword string `envconfig:"LOCALBASKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOCALBASKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOCALBASKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOCALBASKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOCALBASKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOCALBASKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOCALBASKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCALBASKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOCALBASKET_REDIS_ADDR"`
	Password     string        `envconfig:"LOCALBASKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCALBASKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCALBASKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCALBASKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCALBASKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCALBASKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCALBASKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig holds the knobs for the cart pricing rules. Amounts are in
// paise, the smallest currency unit used across the service.
type PricingConfig struct {
	FreeDeliveryThresholdPaise int `envconfig:"LOCALBASKET_FREE_DELIVERY_THRESHOLD" default:"300"`
	DeliveryFeePaise           int `envconfig:"LOCALBASKET_DELIVERY_FEE" default:"40"`
	RedeemCapPercent           int `envconfig:"LOCALBASKET_REDEEM_CAP_PERCENT" default:"20"`
}

func (p PricingConfig) validate() error {
	if p.FreeDeliveryThresholdPaise < 0 || p.DeliveryFeePaise < 0 {
		return fmt.Errorf("delivery pricing values must be non-negative")
	}
	if p.RedeemCapPercent < 0 || p.RedeemCapPercent > 100 {
		return fmt.Errorf("redeem cap percent must be within [0,100]")
	}
	return nil
}

// LoyaltyConfig controls earn rates and tier thresholds.
type LoyaltyConfig struct {
	EarnPerHundredPaise int `envconfig:"LOCALBASKET_LOYALTY_EARN_PER_HUNDRED" default:"2"`
	SilverThreshold     int `envconfig:"LOCALBASKET_LOYALTY_SILVER_THRESHOLD" default:"2000"`
	GoldThreshold       int `envconfig:"LOCALBASKET_LOYALTY_GOLD_THRESHOLD" default:"10000"`
}

// ArchiveConfig controls how long terminal orders stay in the active table.
type ArchiveConfig struct {
	Retention time.Duration `envconfig:"LOCALBASKET_ORDER_ARCHIVE_RETENTION" default:"72h"`
	BatchSize int           `envconfig:"LOCALBASKET_ORDER_ARCHIVE_BATCH_SIZE" default:"100"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"LOCALBASKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"LOCALBASKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"LOCALBASKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Channel        string `envconfig:"LOCALBASKET_OUTBOX_CHANNEL" default:"lb-order-events"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOCALBASKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOCALBASKET_AUTO_MIGRATE" default:"false"`
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
