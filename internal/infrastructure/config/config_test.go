package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SCANCHECKOUT_ODOO_BASE_URL", "http://odoo:8069")
	t.Setenv("SCANCHECKOUT_ODOO_DATABASE", "odoo")
	t.Setenv("SCANCHECKOUT_ODOO_USERNAME", "admin")
	t.Setenv("SCANCHECKOUT_ODOO_PASSWORD", "secret")
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when only required values are set", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "scancheckout-bridge", cfg.App.Name)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
		assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodySize)
		assert.Equal(t, 10, cfg.Odoo.TimeoutSeconds)
		assert.Equal(t, "default_code", cfg.Odoo.SKUField)
		assert.Equal(t, int64(1), cfg.Odoo.DefaultPartnerID)
		assert.True(t, cfg.Checkout.IdempotencyEnabled)
		assert.Equal(t, 24*time.Hour, cfg.Checkout.IdempotencyTTL)
		assert.False(t, cfg.Checkout.UseRedisStore)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SCANCHECKOUT_APP_ENV", "production")
		t.Setenv("SCANCHECKOUT_ODOO_SKU_FIELD", "barcode")
		t.Setenv("SCANCHECKOUT_CHECKOUT_IDEMPOTENCY_TTL", "1h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.IsProduction())
		assert.Equal(t, "barcode", cfg.Odoo.SKUField)
		assert.Equal(t, time.Hour, cfg.Checkout.IdempotencyTTL)
	})

	t.Run("missing odoo credentials fail validation", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SCANCHECKOUT_ODOO_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "odoo.password")
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Odoo: OdooConfig{
				BaseURL:  "http://odoo:8069",
				Database: "odoo",
				Username: "admin",
				Password: "secret",
			},
			Telemetry: TelemetryConfig{SamplingRatio: 1.0},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("telemetry enabled requires an endpoint", func(t *testing.T) {
		cfg := base()
		cfg.Telemetry.Enabled = true
		require.Error(t, cfg.Validate())

		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("sampling ratio must be within range", func(t *testing.T) {
		cfg := base()
		cfg.Telemetry.SamplingRatio = 1.5
		assert.Error(t, cfg.Validate())
	})
}
