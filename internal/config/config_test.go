package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/internal/core/apperror"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/pricing"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, "60-M", cfg.PaymentRateLimit)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, commercial.DefaultPolicySet(), cfg.AdjustmentPolicies)
	assert.Contains(t, cfg.Warnings, "DATABASE_URL not set. Documents are kept in memory")
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	v.Set("DATABASE_URL", "postgres://localhost/ordercore")
	v.Set("AUTH_REQUIRED", "true")
	v.Set("ADJUSTMENT_POLICY_SALES_ORDER", "BEFORE_TAX")
	v.Set("OUTBOX_POLL_INTERVAL", "500ms")
	v.Set("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.False(t, cfg.UseMemoryStore())
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, pricing.PolicyBeforeTax, cfg.AdjustmentPolicies.For(commercial.KindSalesOrder))
	assert.Equal(t, pricing.PolicyBeforeTax, cfg.AdjustmentPolicies.For(commercial.KindPurchaseOrder))
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.Warnings)
}

func TestFromViperFallsBackOnBadDuration(t *testing.T) {
	v := viper.New()
	v.Set("OUTBOX_POLL_INTERVAL", "soon")
	v.Set("OUTBOX_BATCH_SIZE", 0)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Len(t, cfg.Warnings, 3)
}

func TestFromViperRejectsUnknownPolicy(t *testing.T) {
	v := viper.New()
	v.Set("ADJUSTMENT_POLICY_INVOICE", "sideways")

	_, err := FromViper(v)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidEnum, apperror.ValidationKindOf(err))
	assert.Contains(t, err.Error(), "ADJUSTMENT_POLICY_INVOICE")
}
