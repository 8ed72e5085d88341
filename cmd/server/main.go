package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/adamchat/account-service/internal/api"
	"github.com/adamchat/account-service/internal/core/ports"
	"github.com/adamchat/account-service/internal/core/service"
	"github.com/adamchat/account-service/internal/infrastructure/db/mongo"
	"github.com/adamchat/account-service/internal/infrastructure/db/redis"
	"github.com/adamchat/account-service/internal/infrastructure/http/handlers"
	"github.com/adamchat/account-service/internal/infrastructure/notifier"
	"github.com/adamchat/account-service/internal/infrastructure/queue"
	"github.com/adamchat/account-service/internal/pkg/config"
	"github.com/adamchat/account-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title           Account Service API
// @version         1.0
// @description     Credential and session lifecycle: registration, login, refresh-token rotation, logout and password reset by emailed code.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.MustLoad()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty || !cfg.IsProduction(),
		Env:    cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Stores ---
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  cfg.Auth.JWTIssuer,
		Timeout:  cfg.Mongo.StoreTimeout,
	})
	if err != nil {
		return err
	}
	defer disconnectMongo(client, log)

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	health := map[string]handlers.Pinger{"mongodb": handlers.MongoPinger(db)}

	var denylist ports.AccessDenylist
	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)
		denylist = redis.NewAccessDenylist(rdb)
		health["redis"] = handlers.RedisPinger(rdb)
	} else {
		log.Warn().Msg("redis disabled: access tokens stay valid until expiry after logout")
	}

	users := mongo.NewUserRepository(db, cfg.Mongo.StoreTimeout)
	refreshTokens := mongo.NewRefreshTokenRepository(db, cfg.Mongo.StoreTimeout)
	resetCodes := mongo.NewResetCodeRepository(db, cfg.Mongo.StoreTimeout)

	// --- Notification delivery ---
	target, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, target, log.With().Str("component", "notify").Logger())
	dispatcher.Start(ctx)

	// --- Services ---
	hasher := service.NewPasswordHasher(service.Argon2Params{
		Time:     cfg.Argon2.Time,
		MemoryKB: cfg.Argon2.MemoryKB,
		Threads:  cfg.Argon2.Threads,
	})
	issuer := service.NewTokenIssuer(users, refreshTokens, denylist, service.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.JWTIssuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	}, log)
	sessions := service.NewSessionInvalidator(issuer, log)
	resets := service.NewResetCodeService(users, resetCodes, hasher, sessions, dispatcher, cfg.Auth.ResetCodeTTL, log)
	authService, err := service.NewAuthService(users, hasher, issuer, sessions, resets, log)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Auth:             authService,
		Verifier:         issuer,
		Health:           health,
		MaskUnknownEmail: cfg.MaskUnknownEmail,
		Logger:           log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("account service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newNotifier picks SMTP when a host is configured. Without one, reset codes
// are only logged, which config.Validate already forbids in production.
func newNotifier(cfg *config.Config, log zerolog.Logger) (ports.Notifier, error) {
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set: reset codes will be written to the log")
		return notifier.NewLogNotifier(log), nil
	}
	return notifier.NewSMTPNotifier(notifier.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
		TLS:      cfg.SMTP.TLS,
	}, cfg.Auth.ResetCodeTTL)
}

func disconnectMongo(client *mongodrv.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}
