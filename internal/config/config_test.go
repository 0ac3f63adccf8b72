package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SHOP_SEARCH_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Shop.StockMaintained)
	assert.Equal(t, "local", cfg.Shop.SearchMode)
	assert.Equal(t, 24, cfg.Shop.CartExpiryHours)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHOP_STOCK_MAINTAINED", "FALSE")
	t.Setenv("SHOP_SEARCH_MODE", "external")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Shop.StockMaintained)
	assert.Equal(t, "external", cfg.Shop.SearchMode)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT secret key must be changed in production")

	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("SHOP_SEARCH_MODE", "elastic")
	_, err = Load()
	assert.EqualError(t, err, `unsupported search mode "elastic"`)

	t.Setenv("SHOP_SEARCH_MODE", "local")
	t.Setenv("SHOP_CURRENCY", "euro")
	_, err = Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable TimeZone=UTC application_name=storefront-backend", d.DSN())
	assert.False(t, d.InMemory())
}

func TestValidateDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	_, err := Load()
	assert.EqualError(t, err, `unsupported database driver "sqlite"`)

	t.Setenv("DB_DRIVER", "memory")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.True(t, cfg.Database.InMemory())

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	_, err = Load()
	assert.EqualError(t, err, "the memory database driver is not allowed in production")
}
