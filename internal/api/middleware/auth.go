package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adamchat/account-service/internal/api/handler"
	"github.com/adamchat/account-service/internal/core/domain"
	"github.com/adamchat/account-service/internal/core/ports"
)

// Auth validates the bearer access token and injects its claims into the
// echo context under handler.ClaimsKey.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := verifier.VerifyAccess(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrTokenExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				case errors.Is(err, domain.ErrStoreUnavailable):
					return echo.NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
			}

			c.Set(handler.ClaimsKey, claims)
			c.Set("user_id", claims.UserID)

			return next(c)
		}
	}
}
