package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the namespace applied to every environment variable.
const EnvPrefix = "RESELLERHQ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (error messages, tests).
const (
	EnvAppEnv   = "RESELLERHQ_APP_ENV"
	EnvPort     = "RESELLERHQ_APP_PORT"
	EnvDBDSN    = "RESELLERHQ_DB_DSN"
	EnvDBHost   = "RESELLERHQ_DB_HOST"
	EnvDBUser   = "RESELLERHQ_DB_USER"
	EnvDBName   = "RESELLERHQ_DB_NAME"
	EnvRedisURL = "RESELLERHQ_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Withdrawals  WithdrawalsConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RESELLERHQ_APP_ENV" required:"true"`
	Port         string `envconfig:"RESELLERHQ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RESELLERHQ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RESELLERHQ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RESELLERHQ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RESELLERHQ_DB_DSN"`
	Driver string `envconfig:"RESELLERHQ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RESELLERHQ_DB_HOST"`
	LegacyPort     int    `envconfig:"RESELLERHQ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RESELLERHQ_DB_USER"`
	LegacyPassword string `envconfig:"RESELLERHQ_DB_PASSWORD"`
	LegacyName     string `envconfig:"RESELLERHQ_DB_NAME"`
	LegacySSLMode  string `envconfig:"RESELLERHQ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RESELLERHQ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RESELLERHQ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RESELLERHQ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RESELLERHQ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RESELLERHQ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RESELLERHQ_REDIS_ADDR"`
	Password     string        `envconfig:"RESELLERHQ_REDIS_PASSWORD"`
	DB           int           `envconfig:"RESELLERHQ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RESELLERHQ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RESELLERHQ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RESELLERHQ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RESELLERHQ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RESELLERHQ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RESELLERHQ_AUTO_MIGRATE" default:"false"`
}

// WithdrawalsConfig tunes the settlement engine.
type WithdrawalsConfig struct {
	// ReservationMaxAttempts bounds how often a reservation is retried after
	// losing an optimistic-concurrency race before ReservationConflict is returned.
	ReservationMaxAttempts int `envconfig:"RESELLERHQ_WITHDRAWAL_RESERVATION_MAX_ATTEMPTS" default:"3"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"RESELLERHQ_CRON_INTERVAL" default:"24h"`
	ReconcileBatchSize int           `envconfig:"RESELLERHQ_CRON_RECONCILE_BATCH_SIZE" default:"200"`
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
