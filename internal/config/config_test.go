package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MIN_WITHDRAW_AMOUNT", "")
	t.Setenv("RATE_LIMIT_BACKEND", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 50.0, cfg.Payout.MinWithdrawAmount)
	assert.Equal(t, 60*time.Minute, cfg.Fraud.ThrottleWindow)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MIN_WITHDRAW_AMOUNT", "25.5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("THROTTLE_WINDOW", "10m")
	t.Setenv("APP_URL", "https://app.example.com/")

	cfg := Load()

	assert.Equal(t, 25.5, cfg.Payout.MinWithdrawAmount)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Minute, cfg.Fraud.ThrottleWindow)
	assert.Equal(t, "https://app.example.com", cfg.Shortener.AppURL)
}

func TestLoad_InvalidNumberFallsBackToDefault(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "lots")

	cfg := Load()

	assert.Equal(t, 100, cfg.RateLimit.Requests)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Load()
	cfg.Payout.MinWithdrawAmount = 0
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.RateLimit.Backend = "redis"
	cfg.Redis.URL = ""
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.Database.Driver = "sqlite"
	assert.Error(t, cfg.Validate())
}
