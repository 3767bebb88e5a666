package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAppConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg := newAppConfig()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.False(t, cfg.IsProduction())
}

func TestNewAppConfig_ProductionDefaultsToJSON(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := newAppConfig()

	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.IsProduction())
}

func TestNewRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("FEEDBACK_SUBMIT_LOCK_TTL", "10s")

	cfg := newRedisConfig()

	assert.True(t, cfg.Enabled())
	assert.Equal(t, 2, cfg.DB)
	assert.Equal(t, 10*time.Second, cfg.SubmitLockTTL)
}

func TestNewRedisConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_DB", "two")
	t.Setenv("FEEDBACK_SUBMIT_LOCK_TTL", "soon")

	cfg := newRedisConfig()

	assert.False(t, cfg.Enabled())
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, 30*time.Second, cfg.SubmitLockTTL)
}

func TestNewNotificationConfig(t *testing.T) {
	t.Setenv("NOTIFY_PROVIDER", "ClickSend")
	t.Setenv("CLICKSEND_EMAIL_ADDRESS_ID", "42")
	t.Setenv("ALERT_CRON_SPEC", "")

	cfg := newNotificationConfig()

	assert.Equal(t, NotifyProviderClickSend, cfg.Provider)
	assert.Equal(t, 42, cfg.ClickSendEmailAddressID)
	assert.Equal(t, "@every 1m", cfg.AlertCronSpec)
	assert.Equal(t, "https://rest.clicksend.com/v3", cfg.ClickSendBaseURL)
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := &DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "sales", SSLMode: "disable"}

	assert.Equal(t, "host=db user=u password=p dbname=sales port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
