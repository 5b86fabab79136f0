// Package config loads process configuration from .env and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/pricing"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// DatabaseURL selects the Postgres store. Empty runs on the in-memory store.
	DatabaseURL    string
	MigrationsPath string

	JWTSecret    string
	AuthRequired bool

	// OverridePolicy is a CEL expression over user_id, roles, permissions, kind, from, to.
	OverridePolicy string

	AdjustmentPolicies commercial.PolicySet

	PaymentRateLimit string
	CORSOrigins      []string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	// Warnings collects fallbacks applied while loading. Logged by the caller once the logger exists.
	Warnings []string
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UseMemoryStore reports whether no database is configured.
func (c *Config) UseMemoryStore() bool {
	return c.DatabaseURL == ""
}

var policyKeys = map[commercial.Kind]string{
	commercial.KindSalesOrder:    "ADJUSTMENT_POLICY_SALES_ORDER",
	commercial.KindPurchaseOrder: "ADJUSTMENT_POLICY_PURCHASE_ORDER",
	commercial.KindDebitNote:     "ADJUSTMENT_POLICY_DEBIT_NOTE",
	commercial.KindInvoice:       "ADJUSTMENT_POLICY_INVOICE",
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper builds a Config from v with defaults applied.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("OVERRIDE_POLICY", "")
	v.SetDefault("PAYMENT_RATE_LIMIT", "60-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "2s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)

	defaults := commercial.DefaultPolicySet()
	for kind, key := range policyKeys {
		v.SetDefault(key, string(defaults[kind]))
	}

	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("APP_PORT"),
		Env:              v.GetString("APP_ENV"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		MigrationsPath:   v.GetString("MIGRATIONS_PATH"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AuthRequired:     v.GetBool("AUTH_REQUIRED"),
		OverridePolicy:   v.GetString("OVERRIDE_POLICY"),
		PaymentRateLimit: v.GetString("PAYMENT_RATE_LIMIT"),
		OutboxBatchSize:  v.GetInt("OUTBOX_BATCH_SIZE"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		cfg.warn("APP_PORT not set. Defaulting to %s", cfg.Port)
	}
	if cfg.DatabaseURL == "" {
		cfg.warn("DATABASE_URL not set. Documents are kept in memory")
	}
	if cfg.JWTSecret == "change-me-in-production" && !cfg.IsDevelopment() {
		cfg.warn("JWT_SECRET uses the default insecure key")
	}

	pollStr := v.GetString("OUTBOX_POLL_INTERVAL")
	poll, err := time.ParseDuration(pollStr)
	if err != nil || poll <= 0 {
		poll = 2 * time.Second
		cfg.warn("invalid OUTBOX_POLL_INTERVAL (%q). Defaulting to %s", pollStr, poll)
	}
	cfg.OutboxPollInterval = poll

	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = 100
		cfg.warn("invalid OUTBOX_BATCH_SIZE. Defaulting to %d", cfg.OutboxBatchSize)
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	cfg.AdjustmentPolicies = make(commercial.PolicySet, len(policyKeys))
	for kind, key := range policyKeys {
		policy, err := pricing.ParsePolicy(strings.ToLower(v.GetString(key)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		cfg.AdjustmentPolicies[kind] = policy
	}

	return cfg, nil
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}
