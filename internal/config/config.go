package config

import (
	"fmt"
	"time"

	"ayosnow_backend/internal/repository"
	"ayosnow_backend/internal/utils"
	"ayosnow_backend/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	HTTPPort       int `envconfig:"HTTP_PORT" default:"8080"`
	GRPCHealthPort int `envconfig:"GRPC_HEALTH_PORT" default:"50054"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"ayosnow"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	// RedisAddr is host:port or a redis:// URL. Empty disables the shared
	// registration lock and idempotent replay.
	RedisAddr            string        `envconfig:"REDIS_ADDR"`
	RegistrationLockTTL  time.Duration `envconfig:"REGISTRATION_LOCK_TTL" default:"10s"`
	RegistrationLockWait time.Duration `envconfig:"REGISTRATION_LOCK_WAIT" default:"5s"`
	IdempotencyTTL       time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	PasswordMode       string   `envconfig:"PASSWORD_MODE" default:"plain"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"ayosnow-backend"`
	Environment  string `envconfig:"ENVIRONMENT" default:"development"`

	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"30"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: expected %s or %s", c.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}
	switch c.PasswordMode {
	case utils.PasswordModePlain, utils.PasswordModeBcrypt:
	default:
		return fmt.Errorf("invalid PASSWORD_MODE %q: expected %s or %s", c.PasswordMode, utils.PasswordModePlain, utils.PasswordModeBcrypt)
	}
	if c.RegistrationLockTTL <= 0 || c.RegistrationLockWait <= 0 || c.IdempotencyTTL <= 0 {
		return fmt.Errorf("lock and idempotency durations must be positive")
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must not be empty")
	}
	return nil
}

func (c *Config) Postgres() repository.PostgresConfig {
	return repository.PostgresConfig{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:      c.LogLevel,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
		Compress:   true,
	}
}
