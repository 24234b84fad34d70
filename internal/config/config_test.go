package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/tm")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cfg.PlatformFeeBps)
	assert.Equal(t, "EUR", cfg.PaymentCurrency)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "postgres://u:p@db:5432/tm", cfg.DatabaseURL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_PaymentSettings(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PLATFORM_FEE_PERCENT", "12.5")
	t.Setenv("PAYMENT_CURRENCY", "usd")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, int64(1250), cfg.PlatformFeeBps)
	assert.Equal(t, "USD", cfg.PaymentCurrency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestFromEnv_InvalidFee(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PLATFORM_FEE_PERCENT", "150")

	_, err := fromEnv()
	assert.Error(t, err)
}

func TestFromEnv_ProductionRequirements(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	_, err := fromEnv()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("GATEWAY_WEBHOOK_SECRET", "")
	_, err = fromEnv()
	assert.Error(t, err)

	t.Setenv("GATEWAY_WEBHOOK_SECRET", "whsec")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example")
	t.Setenv("GATEWAY_BASE_URL", "")
	_, err = fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_BASE_URL")

	t.Setenv("GATEWAY_BASE_URL", "https://pay.example")
	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
