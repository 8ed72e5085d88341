package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adamchat/account-service/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps the account error taxonomy to an HTTP status and a message
// safe to show clients. ok is false for errors outside the taxonomy.
func StatusFor(err error) (code int, msg string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials", true
	case errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusUnauthorized, "account disabled", true
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired", true
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid token", true
	case errors.Is(err, domain.ErrCodeInvalidOrExpired):
		return http.StatusBadRequest, "invalid or expired code", true
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists", true
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found", true
	case errors.Is(err, domain.ErrInvalidUsername):
		return http.StatusBadRequest, "username must not contain @", true
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusUnprocessableEntity, err.Error(), true
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusServiceUnavailable, "service temporarily unavailable", true
	}
	return http.StatusInternalServerError, "internal server error", false
}

// fail renders err with the status StatusFor picks. Unknown errors are
// handed to echo's error handler so they get logged.
func fail(c echo.Context, err error) error {
	code, msg, ok := StatusFor(err)
	if !ok {
		return err
	}
	return c.JSON(code, errorResponse{Error: msg})
}
