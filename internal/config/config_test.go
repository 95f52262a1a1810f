package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "secret",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/hospeda",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "secret",
		"PORT":         "",
		"APP_ENV":      "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "AOA", cfg.CurrencyCode)
	require.Equal(t, "proxypay", cfg.PaymentProvider)
	require.Equal(t, 3, cfg.InvoiceDueDays)
	require.Positive(t, cfg.CartTTL)
	require.Positive(t, cfg.PaymentIntentTTL)
}

func TestLoadParsesOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":         "postgres://localhost/hospeda",
		"REDIS_URL":            "redis://localhost:6379",
		"JWT_SECRET":           "secret",
		"PORT":                 "9090",
		"CORS_ALLOWED_ORIGINS": "https://painel.hospeda.ao, https://www.hospeda.ao",
		"INVOICE_DUE_DAYS":     "7",
		"CHECKOUT_RATE_MAX":    "25",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Len(t, cfg.CORSAllowedOrigins, 2)
	require.Equal(t, 7, cfg.InvoiceDueDays)
	require.Equal(t, 25, cfg.CheckoutRateMax)
}
