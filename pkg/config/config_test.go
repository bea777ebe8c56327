package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "coupon_drop", cfg.Mongo.Database)
	assert.Equal(t, 24*time.Hour, cfg.Claim.Cooldown)
	assert.Equal(t, 5, cfg.Claim.RateBurst)
	assert.True(t, cfg.Claim.CacheCooldown)
	assert.Equal(t, "sb-access-token", cfg.Auth.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.Sentry.Enabled)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("COUPON_CLAIM_COOLDOWN", "2h")
	t.Setenv("COUPON_MONGO_TRANSACTIONS", "true")
	t.Setenv("COUPON_AUTH_SUPABASE_BASE_URL", "https://project.supabase.co")
	t.Setenv("COUPON_AUTH_ADMIN_EMAILS", "ops@example.com,owner@example.com")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Claim.Cooldown)
	assert.True(t, cfg.Mongo.Transactions)
	assert.Equal(t, "https://project.supabase.co", cfg.Auth.Supabase.BaseURL)
	assert.Equal(t, []string{"ops@example.com", "owner@example.com"}, cfg.Auth.AdminEmails)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown log level", "COUPON_LOGGING_LEVEL", "verbose"},
		{"zero cooldown", "COUPON_CLAIM_COOLDOWN", "0s"},
		{"unknown gin mode", "COUPON_SERVER_GIN_MODE", "fast"},
		{"sentry without dsn", "COUPON_SENTRY_ENABLED", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, GetDefaultConfig().Validate())
}

func TestGetEnv(t *testing.T) {
	t.Setenv("COUPON_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("COUPON_TEST_VALUE", "fallback"))

	t.Setenv("COUPON_TEST_VALUE", "")
	assert.Equal(t, "fallback", GetEnv("COUPON_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("COUPON_TEST_UNSET", "fallback"))
}
