// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // reporting zone must resolve on minimal images

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	AppPort   int    `env:"APP_PORT" envDefault:"8080"`
	APIPrefix string `env:"API_PREFIX" envDefault:"/v1"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Cache (Redis)
	RedisURL     string        `env:"REDIS_URL,required"`
	RedisTTL     time.Duration `env:"REDIS_TTL" envDefault:"1h"`
	CacheTimeout time.Duration `env:"CACHE_TIMEOUT" envDefault:"500ms"`

	// Membership store
	StoreBackend string        `env:"STORE_BACKEND" envDefault:"dynamodb"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`

	// DynamoDB backend
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	DynamoDBTable      string `env:"DYNAMODB_TABLE" envDefault:"premium_users"`
	DynamoDBEndpoint   string `env:"DYNAMODB_ENDPOINT"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// PostgreSQL backend
	DatabaseURL     string `env:"DATABASE_URL"`
	MembershipTable string `env:"MEMBERSHIP_TABLE" envDefault:"premium_users"`

	// PayPal
	PayPalClientID         string        `env:"PAYPAL_CLIENT_ID,required"`
	PayPalClientSecret     string        `env:"PAYPAL_CLIENT_SECRET,required"`
	PayPalBaseURL          string        `env:"PAYPAL_BASE_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	PayPalTimeout          time.Duration `env:"PAYPAL_TIMEOUT" envDefault:"20s"`
	PayPalReportingTimeout time.Duration `env:"PAYPAL_REPORTING_TIMEOUT" envDefault:"30s"`
	PayPalReportingTZ      string        `env:"PAYPAL_REPORTING_TZ" envDefault:"America/New_York"`
	PayPalPageSize         int           `env:"PAYPAL_PAGE_SIZE" envDefault:"100"`

	// Webhook ingress
	PayPalWebhookID        string `env:"PAYPAL_WEBHOOK_ID"`
	WebhookVerifySignature bool   `env:"WEBHOOK_VERIFY_SIGNATURE" envDefault:"false"`
	MaxWebhookBodySize     int64  `env:"MAX_WEBHOOK_BODY_SIZE" envDefault:"1048576"`

	// Transaction poller
	PollerEnabled  bool   `env:"POLLER_ENABLED" envDefault:"false"`
	PollerSchedule string `env:"POLLER_SCHEDULE" envDefault:"@hourly"`
	PollerApply    bool   `env:"POLLER_APPLY" envDefault:"false"`

	// Rate limiting for status checks (per client IP)
	RateLimitCheckEnabled bool `env:"RATE_LIMIT_CHECK_ENABLED" envDefault:"true"`
	RateLimitCheckRPS     int  `env:"RATE_LIMIT_CHECK_RPS" envDefault:"20"`
	RateLimitCheckBurst   int  `env:"RATE_LIMIT_CHECK_BURST" envDefault:"40"`

	// Admin API keys, comma-separated Argon2id hashes
	AdminAPIKeyHashes string `env:"ADMIN_API_KEY_HASHES" envDefault:""`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetAdminAPIKeyHashes parses the comma-separated hash list into a slice.
func (c *Config) GetAdminAPIKeyHashes() []string {
	if c.AdminAPIKeyHashes == "" {
		return nil
	}

	hashes := strings.Split(c.AdminAPIKeyHashes, ",")
	result := make([]string, 0, len(hashes))

	for _, hash := range hashes {
		trimmed := strings.TrimSpace(hash)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// ReportingLocation resolves the fixed civil-time zone used for reporting windows.
func (c *Config) ReportingLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.PayPalReportingTZ)
	if err != nil {
		return nil, fmt.Errorf("load reporting zone %q: %w", c.PayPalReportingTZ, err)
	}
	return loc, nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			errs = append(errs, errors.New("DYNAMODB_TABLE is required for the dynamodb store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
		if c.MembershipTable == "" {
			errs = append(errs, errors.New("MEMBERSHIP_TABLE is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	if c.RedisTTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL must be positive"))
	}
	if c.PayPalPageSize <= 0 || c.PayPalPageSize > 500 {
		errs = append(errs, errors.New("PAYPAL_PAGE_SIZE must be between 1 and 500"))
	}
	if c.WebhookVerifySignature && c.PayPalWebhookID == "" {
		errs = append(errs, errors.New("PAYPAL_WEBHOOK_ID is required when WEBHOOK_VERIFY_SIGNATURE is set"))
	}
	if _, err := c.ReportingLocation(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Load reads an optional .env file, parses environment variables and returns a Config.
// Variables already present in the environment take precedence over .env values.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
