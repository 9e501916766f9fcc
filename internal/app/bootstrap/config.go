package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// minSessionSecretLength mirrors the HMAC key floor enforced by the token adapter.
const minSessionSecretLength = 32

// Config is the resolved runtime configuration for the storefront.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DBDriver    string
	DatabaseURL string
	MaxDBConns  int32
	AutoMigrate bool

	RedisURL     string
	KafkaBrokers []string

	SessionSecret       string
	SessionCookieName   string
	SessionMaxAge       time.Duration
	SessionCookieSecure bool

	BcryptCost      int
	FailedThreshold int
	LockoutDuration time.Duration

	OutboxPollInterval    time.Duration
	OutboxBatchSize       int
	OutboxClaimTTL        time.Duration
	OutboxMaxRetries      int
	SessionSweepInterval  time.Duration
	SessionSweepBatchSize int

	LogLevel string
	LogDir   string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		DBDriver     string   `yaml:"db_driver"`
		DatabaseURL  string   `yaml:"database_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Session struct {
		CookieName    string `yaml:"cookie_name"`
		MaxAgeSeconds int    `yaml:"max_age_seconds"`
		SecureCookie  *bool  `yaml:"secure_cookie"`
	} `yaml:"session"`
	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> .env -> env.
// A .env file in the working directory never overrides variables already set.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "storefront",
		HTTPPort:              8080,
		GRPCPort:              9090,
		DBDriver:              "postgres",
		MaxDBConns:            20,
		AutoMigrate:           true,
		SessionCookieName:     "ecommerce_session",
		SessionMaxAge:         7 * 24 * time.Hour,
		BcryptCost:            10,
		FailedThreshold:       5,
		LockoutDuration:       15 * time.Minute,
		OutboxPollInterval:    2 * time.Second,
		OutboxBatchSize:       100,
		OutboxClaimTTL:        30 * time.Second,
		OutboxMaxRetries:      5,
		SessionSweepInterval:  10 * time.Minute,
		SessionSweepBatchSize: 500,
		LogLevel:              "info",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyConfigFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(envOrDefault("DB_DRIVER", cfg.DBDriver)))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("DATABASE_URL", cfg.DatabaseURL))
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.AutoMigrate = envBool("DB_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)

	cfg.SessionSecret = envOrDefault("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionCookieName = envOrDefault("SESSION_COOKIE_NAME", cfg.SessionCookieName)
	cfg.SessionMaxAge = time.Duration(envInt("SESSION_MAX_AGE_SECONDS", int(cfg.SessionMaxAge.Seconds()))) * time.Second
	cfg.SessionCookieSecure = envBool("SESSION_COOKIE_SECURE", cfg.SessionCookieSecure)

	cfg.BcryptCost = envInt("BCRYPT_COST", cfg.BcryptCost)
	cfg.FailedThreshold = envInt("LOGIN_FAILED_THRESHOLD", cfg.FailedThreshold)
	cfg.LockoutDuration = time.Duration(envInt("LOGIN_LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute

	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.SessionSweepInterval = time.Duration(envInt("SESSION_SWEEP_INTERVAL_SECONDS", int(cfg.SessionSweepInterval.Seconds()))) * time.Second
	cfg.SessionSweepBatchSize = envInt("SESSION_SWEEP_BATCH_SIZE", cfg.SessionSweepBatchSize)

	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogDir = envOrDefault("LOG_DIR", cfg.LogDir)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyConfigFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.DBDriver != "" {
		cfg.DBDriver = f.Dependencies.DBDriver
	}
	if f.Dependencies.DatabaseURL != "" {
		cfg.DatabaseURL = f.Dependencies.DatabaseURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Session.CookieName != "" {
		cfg.SessionCookieName = f.Session.CookieName
	}
	if f.Session.MaxAgeSeconds > 0 {
		cfg.SessionMaxAge = time.Duration(f.Session.MaxAgeSeconds) * time.Second
	}
	if f.Session.SecureCookie != nil {
		cfg.SessionCookieSecure = *f.Session.SecureCookie
	}
	if f.Logging.Level != "" {
		cfg.LogLevel = f.Logging.Level
	}
	if f.Logging.Dir != "" {
		cfg.LogDir = f.Logging.Dir
	}
	return nil
}

func (c Config) validate() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q, use postgres or sqlite", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing DB_URL")
	}
	if len(c.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLength)
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE_SECONDS must be positive")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	return nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
