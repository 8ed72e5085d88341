package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/adamchat/account-service/docs"
	"github.com/adamchat/account-service/internal/api/handler"
	"github.com/adamchat/account-service/internal/api/middleware"
	"github.com/adamchat/account-service/internal/core/ports"
	"github.com/adamchat/account-service/internal/infrastructure/http/handlers"
)

// Dependencies is everything NewRouter wires into routes.
type Dependencies struct {
	Auth     ports.AuthService
	Verifier ports.TokenVerifier
	// Health lists the readiness checks by dependency name.
	Health map[string]handlers.Pinger
	// MaskUnknownEmail makes forgot-password answer 202 for unknown emails.
	MaskUnknownEmail bool
	Logger           zerolog.Logger
	// Registerer and Gatherer default to the global prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: deps.Registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Logger)
	passwordHandler := handler.NewPasswordHandler(deps.Auth, deps.MaskUnknownEmail, deps.Logger)
	requireAuth := middleware.Auth(deps.Verifier)

	// --- Public auth routes ---
	auth := e.Group("/api/auth")
	auth.GET("/status", authHandler.Status)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", passwordHandler.ForgotPassword)
	auth.POST("/verify-reset-code", passwordHandler.VerifyResetCode)
	auth.POST("/reset-password", passwordHandler.ResetPassword)

	// --- Bearer-protected routes ---
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.POST("/logout-all", authHandler.LogoutAll, requireAuth)
	auth.POST("/change-password", authHandler.ChangePassword, requireAuth)
	auth.GET("/user", authHandler.Me, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
