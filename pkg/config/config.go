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
	Paddle       PaddleConfig
	CORS         CORSConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BILLSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"BILLSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BILLSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BILLSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BILLSYNC_DB_DSN"`
	Driver string `envconfig:"BILLSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BILLSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"BILLSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BILLSYNC_DB_USER"`
	LegacyPassword string `envconfig:"BILLSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"BILLSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"BILLSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BILLSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BILLSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BILLSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BILLSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the lightweight dev/test driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type PaddleConfig struct {
	APIKey        string        `envconfig:"BILLSYNC_PADDLE_API_KEY" required:"true"`
	WebhookSecret string        `envconfig:"BILLSYNC_PADDLE_WEBHOOK_SECRET" required:"true"`
	Env           string        `envconfig:"BILLSYNC_PADDLE_ENV" default:"sandbox"`
	Timeout       time.Duration `envconfig:"BILLSYNC_PADDLE_TIMEOUT" default:"10s"`

	// Maximum allowed age of a webhook's signature timestamp. Zero disables
	// the freshness check.
	SignatureTolerance time.Duration `envconfig:"BILLSYNC_PADDLE_SIGNATURE_TOLERANCE" default:"5s"`
}

// Environment returns the normalized Paddle environment (sandbox/production).
func (p PaddleConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BILLSYNC_CORS_ALLOWED_ORIGINS"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BILLSYNC_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when the sqlite driver is selected", EnvDBDSN)
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
