package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-backend/internal/domains/payment/gateway/redsys"
)

const testSecret = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"

func setRedsysEnv(t *testing.T) {
	t.Setenv("REDSYS_MERCHANT_CODE", "999008881")
	t.Setenv("REDSYS_SECRET_KEY", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRedsysEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "1", cfg.Redsys.Terminal)
	assert.Equal(t, redsys.EnvironmentTest, cfg.Redsys.Environment)
	assert.Equal(t, redsys.CurrencyEUR, cfg.Redsys.Currency)
	assert.Equal(t, 2*time.Second, cfg.Redsys.NotifyTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Redsys.ReplayTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.PaymentAbandonAfter)

	gw := cfg.Redsys.GatewayConfig()
	assert.Equal(t, redsys.TestFormURL, gw.FormURL())
	assert.Equal(t, "http://localhost:8080/api/v1/webhooks/redsys", gw.MerchantURL)
}

func TestLoad_Overrides(t *testing.T) {
	setRedsysEnv(t)
	t.Setenv("APP_ALLOWED_ORIGINS", "https://shop.example.test, https://admin.example.test,")
	t.Setenv("REDSYS_NOTIFY_TIMEOUT", "500ms")
	t.Setenv("REDSYS_REPLAY_TIMEOUT", "50ms")
	t.Setenv("JOBS_PAYMENT_ABANDON_AFTER", "not-a-duration")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://shop.example.test", "https://admin.example.test"}, cfg.App.AllowedOrigins)
	assert.Equal(t, 500*time.Millisecond, cfg.Redsys.NotifyTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Redsys.ReplayTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.PaymentAbandonAfter)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("MissingMerchant", func(t *testing.T) {
		t.Setenv("REDSYS_SECRET_KEY", testSecret)
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("BadSecret", func(t *testing.T) {
		t.Setenv("REDSYS_MERCHANT_CODE", "999008881")
		t.Setenv("REDSYS_SECRET_KEY", "c2hvcnQ=")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("ProductionDefaults", func(t *testing.T) {
		setRedsysEnv(t)
		t.Setenv("APP_ENV", "production")
		_, err := Load()
		assert.Error(t, err)

		t.Setenv("JWT_SECRET", "a-real-secret")
		_, err = Load()
		assert.Error(t, err, "test gateway in production")

		t.Setenv("REDSYS_ENVIRONMENT", redsys.EnvironmentLive)
		_, err = Load()
		assert.NoError(t, err)
	})
}

func TestLoadDatabaseConfig_Defaults(t *testing.T) {
	cfg, err := LoadDatabaseConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "printshop_dev", cfg.DBName)
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.Equal(t, int32(5), cfg.MinConns)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnLifetime)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
}

func TestLoadDatabaseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port", "DB_PORT", "abc"},
		{"max connections", "DB_MAX_CONNECTIONS", "many"},
		{"duration", "DB_RETRY_DELAY", "soon"},
		{"min above max", "DB_MIN_CONNECTIONS", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadDatabaseConfig()
			require.Error(t, err)
		})
	}
}
