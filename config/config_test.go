package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, time.Hour, c.TokenTTL)
	assert.Equal(t, 10*time.Minute, c.OTPTTL)
	assert.Equal(t, 24*time.Hour, c.StaleUserTTL)
	assert.Equal(t, 45.0, c.RatePerKm)
	assert.Equal(t, 587, c.SMTPPort)
	assert.Equal(t, "local", c.ProofStorage)
	assert.Empty(t, c.RedisAddr)
	assert.Empty(t, c.AMQPURL)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("RATE_PER_KM", "50.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PROOF_STORAGE", "s3")

	var c Config
	c.LoadDefaults()
	require.NoError(t, c.LoadEnv())

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "file:test.db", c.DatabaseURL)
	assert.Equal(t, 30*time.Minute, c.TokenTTL)
	assert.Equal(t, 2525, c.SMTPPort)
	assert.Equal(t, 50.5, c.RatePerKm)
	assert.Equal(t, "localhost:6379", c.RedisAddr)
	assert.Equal(t, "s3", c.ProofStorage)
	// untouched
	assert.Equal(t, 10*time.Minute, c.OTPTTL)
}

func TestLoadEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "OTP_TTL", "ten minutes"},
		{"bad port", "SMTP_PORT", "smtp"},
		{"bad rate", "RATE_PER_KM", "cheap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			var c Config
			c.LoadDefaults()
			err := c.LoadEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
