package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adamchat/account-service/internal/core/domain"
)

// ClaimsKey is the echo context key the Auth middleware stores verified
// access claims under.
const ClaimsKey = "claims"

// ctxClaims extracts the claims injected by the Auth middleware. Their
// absence means the route was mounted without the middleware; reject with 401.
func ctxClaims(c echo.Context) (*domain.AccessClaims, error) {
	claims, _ := c.Get(ClaimsKey).(*domain.AccessClaims)
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
