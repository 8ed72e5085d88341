package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const envProduction = "production"

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY"`

	// MaskUnknownEmail answers forgot-password for unknown emails exactly
	// like for registered ones.
	MaskUnknownEmail bool `env:"MASK_UNKNOWN_EMAIL, default=true"`
	// NotifyWorkers is the number of reset-code delivery workers.
	NotifyWorkers int `env:"NOTIFY_WORKERS, default=4"`

	Auth   AuthConfig
	Argon2 Argon2Config
	Mongo  MongoConfig
	Redis  RedisConfig
	SMTP   SMTPConfig
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER,        default=account-service"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=720h"`
	ResetCodeTTL    time.Duration `env:"RESET_CODE_TTL,    default=30m"`
}

// Argon2Config tunes the password KDF. Zero values fall back to the
// hasher's defaults.
type Argon2Config struct {
	Time     uint32 `env:"ARGON2_TIME"`
	MemoryKB uint32 `env:"ARGON2_MEMORY_KB"`
	Threads  uint8  `env:"ARGON2_THREADS"`
}

type MongoConfig struct {
	URI          string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database     string        `env:"MONGO_DB,      default=account_service"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT, default=5s"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED, default=true"`
	Addr     string `env:"REDIS_ADDR,    default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,      default=0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,      default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	FromName string `env:"SMTP_FROM_NAME, default=Account Service"`
	// TLS is "starttls" (default), "tls" for implicit TLS, or "none".
	TLS string `env:"SMTP_TLS, default=starttls"`
}

// IsProduction reports whether ENV names the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, envProduction)
}

// Validate rejects settings the service cannot run safely with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be positive"))
	}
	if c.Auth.ResetCodeTTL <= 0 {
		errs = append(errs, errors.New("RESET_CODE_TTL must be positive"))
	}
	if c.NotifyWorkers <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be positive"))
	}
	switch strings.ToLower(c.SMTP.TLS) {
	case "starttls", "tls", "none":
	default:
		errs = append(errs, fmt.Errorf("SMTP_TLS %q must be one of starttls, tls, none", c.SMTP.TLS))
	}
	// Reset codes are only ever logged outside production.
	if c.IsProduction() && c.SMTP.Host == "" {
		errs = append(errs, errors.New("SMTP_HOST is required in production"))
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for main: it panics on error.
func MustLoad() *Config {
	cfg, err := Load(context.Background())
	if err != nil {
		panic(err)
	}
	return cfg
}
