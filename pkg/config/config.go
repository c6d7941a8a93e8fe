package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting for the restock services. Values are
// loaded from RESTOCK_-prefixed environment variables, with a .env file
// honored in development.
type Config struct {
	App      AppConfig      `envconfig:"APP"`
	DB       DBConfig       `envconfig:"DB"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	JWT      JWTConfig      `envconfig:"JWT"`
	GCP      GCPConfig      `envconfig:"GCP"`
	PubSub   PubSubConfig   `envconfig:"PUBSUB"`
	Outbox   OutboxConfig   `envconfig:"OUTBOX"`
	Dispatch DispatchConfig `envconfig:"DISPATCH"`
	Features FeatureFlags   `envconfig:"FEATURES"`
}

type AppConfig struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        int    `envconfig:"PORT" default:"8080"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"restock-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

type DBConfig struct {
	DSN             string        `envconfig:"DSN"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"false"`
	UseSQLite       bool          `envconfig:"USE_SQLITE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"URL"`
	Address      string        `envconfig:"ADDRESS" default:"localhost:6379"`
	Password     string        `envconfig:"PASSWORD"`
	DB           int           `envconfig:"DB" default:"0"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

type JWTConfig struct {
	Secret   string        `envconfig:"SECRET"`
	Issuer   string        `envconfig:"ISSUER" default:"restock-backend"`
	Audience string        `envconfig:"AUDIENCE" default:"restock-api"`
	TTL      time.Duration `envconfig:"TTL" default:"1h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"DOMAIN_TOPIC" default:"restock-domain-events"`
	DomainSubscription       string `envconfig:"DOMAIN_SUBSCRIPTION" default:"restock-domain-events-worker"`
	NotificationTopic        string `envconfig:"NOTIFICATION_TOPIC" default:"restock-notifications"`
	NotificationSubscription string `envconfig:"NOTIFICATION_SUBSCRIPTION" default:"restock-notifications-worker"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	BatchSize    int           `envconfig:"BATCH_SIZE" default:"50"`
	MaxAttempts  int           `envconfig:"MAX_ATTEMPTS" default:"8"`
}

type DispatchConfig struct {
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"en"`
}

type FeatureFlags struct {
	DiscountRules bool `envconfig:"DISCOUNT_RULES" default:"true"`
}

// Load reads configuration from the environment. In development it first
// merges a local .env file when one exists.
func Load() (*Config, error) {
	if os.Getenv(EnvPrefix+"_APP_ENV") != AppEnvProd {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	if err := cfg.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ensureDSN assembles the database DSN from the legacy per-field variables
// when RESTOCK_DB_DSN is not set directly.
func (c *Config) ensureDSN() error {
	if c.DB.DSN != "" {
		return nil
	}
	if dsn := os.Getenv(EnvDBDSN); dsn != "" {
		c.DB.DSN = dsn
		return nil
	}

	host := os.Getenv(legacyDBEnvVars.Host)
	name := os.Getenv(legacyDBEnvVars.Name)
	if host == "" || name == "" {
		return fmt.Errorf("database configuration missing: set %s or the RESTOCK_DB_* variables", EnvDBDSN)
	}

	port := os.Getenv(legacyDBEnvVars.Port)
	if port == "" {
		port = "5432"
	}
	sslMode := os.Getenv(legacyDBEnvVars.SSLMode)
	if sslMode == "" {
		sslMode = "disable"
	}

	c.DB.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		port,
		os.Getenv(legacyDBEnvVars.User),
		os.Getenv(legacyDBEnvVars.Password),
		name,
		sslMode,
	)
	return nil
}

// IsDev reports whether the service runs in the development environment.
func (c *Config) IsDev() bool {
	return c.App.Env == AppEnvDev
}
