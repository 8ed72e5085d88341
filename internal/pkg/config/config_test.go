package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.MaskUnknownEmail)
	assert.Equal(t, 4, cfg.NotifyWorkers)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetCodeTTL)
	assert.Equal(t, 5*time.Second, cfg.Mongo.StoreTimeout)
	assert.Equal(t, "account_service", cfg.Mongo.Database)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "starttls", cfg.SMTP.TLS)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "s3cret",
		"ACCESS_TOKEN_TTL":   "15m",
		"RESET_CODE_TTL":     "10m",
		"MASK_UNKNOWN_EMAIL": "false",
		"ARGON2_MEMORY_KB":   "19456",
		"ARGON2_THREADS":     "2",
		"REDIS_ENABLED":      "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Auth.ResetCodeTTL)
	assert.False(t, cfg.MaskUnknownEmail)
	assert.EqualValues(t, 19456, cfg.Argon2.MemoryKB)
	assert.EqualValues(t, 2, cfg.Argon2.Threads)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:           "development",
			NotifyWorkers: 1,
			Auth: AuthConfig{
				JWTSecret:       "x",
				AccessTokenTTL:  time.Minute,
				RefreshTokenTTL: time.Hour,
				ResetCodeTTL:    time.Minute,
			},
			SMTP: SMTPConfig{TLS: "starttls"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"non-positive access ttl", func(c *Config) { c.Auth.AccessTokenTTL = 0 }, "ACCESS_TOKEN_TTL"},
		{"negative reset ttl", func(c *Config) { c.Auth.ResetCodeTTL = -time.Second }, "RESET_CODE_TTL"},
		{"production without smtp", func(c *Config) { c.Env = "Production" }, "SMTP_HOST is required"},
		{"smtp without from", func(c *Config) { c.SMTP.Host = "mail.local" }, "SMTP_FROM is required"},
		{"bad tls mode", func(c *Config) { c.SMTP.TLS = "ssl3" }, "SMTP_TLS"},
		{"production with smtp", func(c *Config) {
			c.Env = "production"
			c.SMTP.Host = "mail.local"
			c.SMTP.From = "no-reply@example.com"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
