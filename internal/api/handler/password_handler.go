package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/adamchat/account-service/internal/api/metrics"
	"github.com/adamchat/account-service/internal/core/domain"
	"github.com/adamchat/account-service/internal/core/ports"
)

const forgotPasswordMessage = "if the email is registered, a reset code has been sent"

// PasswordHandler serves the forgot-password flow.
type PasswordHandler struct {
	resets ports.ResetCodeManager
	logger zerolog.Logger
	// maskUnknown answers unknown emails exactly like known ones.
	maskUnknown bool
}

func NewPasswordHandler(resets ports.ResetCodeManager, maskUnknown bool, logger zerolog.Logger) *PasswordHandler {
	return &PasswordHandler{resets: resets, maskUnknown: maskUnknown, logger: logger}
}

// ForgotPassword issues a one-time reset code and sends it to the email.
//
// @Summary      Request a password reset code
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/auth/forgot-password [post]
func (h *PasswordHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.resets.Generate(c.Request().Context(), req.Email)
	switch {
	case err == nil:
		metrics.ResetCodesIssuedTotal.WithLabelValues("issued").Inc()
	case errors.Is(err, domain.ErrUserNotFound):
		metrics.ResetCodesIssuedTotal.WithLabelValues("unknown_email").Inc()
		if !h.maskUnknown {
			return fail(c, err)
		}
		h.logger.Debug().Msg("reset requested for unknown email")
	default:
		metrics.ResetCodesIssuedTotal.WithLabelValues("error").Inc()
		return fail(c, err)
	}

	return c.JSON(http.StatusAccepted, messageResponse{Message: forgotPasswordMessage})
}

// VerifyResetCode checks a code without consuming it.
//
// @Summary      Verify a password reset code
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      verifyResetCodeRequest  true  "Email and code"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/auth/verify-reset-code [post]
func (h *PasswordHandler) VerifyResetCode(c echo.Context) error {
	var req verifyResetCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.resets.Validate(c.Request().Context(), req.Email, req.Code); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "code is valid"})
}

// ResetPassword redeems a code, sets the new password and ends every session.
//
// @Summary      Reset password with a code
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email, code and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/auth/reset-password [post]
func (h *PasswordHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.resets.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		// A user deleted between Generate and redemption reads as a dead code.
		if errors.Is(err, domain.ErrUserNotFound) {
			err = domain.ErrCodeInvalidOrExpired
		}
		if errors.Is(err, domain.ErrCodeInvalidOrExpired) {
			metrics.PasswordResetsTotal.WithLabelValues("invalid_code").Inc()
		} else {
			metrics.PasswordResetsTotal.WithLabelValues("error").Inc()
		}
		return fail(c, err)
	}

	metrics.PasswordResetsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "password has been reset"})
}
