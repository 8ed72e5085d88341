package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adamchat/account-service/internal/core/domain"
)

func TestPasswordHandler_ForgotPassword(t *testing.T) {
	stub := &stubAuthService{
		generateFn: func(_ context.Context, email string) error {
			switch email {
			case "alice@example.com":
				return nil
			case "down@example.com":
				return fmt.Errorf("generate: %w", domain.ErrDeliveryFailed)
			default:
				return domain.ErrUserNotFound
			}
		},
	}

	tests := []struct {
		name  string
		mask  bool
		email string
		want  int
	}{
		{"known email", true, "alice@example.com", http.StatusAccepted},
		{"unknown email masked", true, "ghost@example.com", http.StatusAccepted},
		{"unknown email unmasked", false, "ghost@example.com", http.StatusNotFound},
		{"delivery failure", true, "down@example.com", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPasswordHandler(stub, tt.mask, zerolog.Nop())
			c, rec := newContext(http.MethodPost, "/api/auth/forgot-password", `{"email":"`+tt.email+`"}`, nil)
			if err := h.ForgotPassword(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestPasswordHandler_ForgotPassword_MaskedBodiesMatch(t *testing.T) {
	stub := &stubAuthService{
		generateFn: func(_ context.Context, email string) error {
			if email == "alice@example.com" {
				return nil
			}
			return domain.ErrUserNotFound
		},
	}
	h := NewPasswordHandler(stub, true, zerolog.Nop())

	c, known := newContext(http.MethodPost, "/api/auth/forgot-password", `{"email":"alice@example.com"}`, nil)
	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	c, unknown := newContext(http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`, nil)
	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if known.Body.String() != unknown.Body.String() {
		t.Fatalf("responses differ: %q vs %q", known.Body.String(), unknown.Body.String())
	}
}

func TestPasswordHandler_ForgotPassword_InvalidEmail(t *testing.T) {
	h := NewPasswordHandler(&stubAuthService{}, true, zerolog.Nop())

	c, _ := newContext(http.MethodPost, "/api/auth/forgot-password", `{"email":"nope"}`, nil)
	if code := httpErrorCode(t, h.ForgotPassword(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestPasswordHandler_VerifyResetCode(t *testing.T) {
	stub := &stubAuthService{
		validateFn: func(_ context.Context, email, code string) error {
			if code == "123456" {
				return nil
			}
			return domain.ErrCodeInvalidOrExpired
		},
	}
	h := NewPasswordHandler(stub, true, zerolog.Nop())

	c, rec := newContext(http.MethodPost, "/api/auth/verify-reset-code", `{"email":"alice@example.com","code":"123456"}`, nil)
	if err := h.VerifyResetCode(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = newContext(http.MethodPost, "/api/auth/verify-reset-code", `{"email":"alice@example.com","code":"654321"}`, nil)
	if err := h.VerifyResetCode(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "invalid or expired code" {
		t.Fatalf("unexpected message %q", msg)
	}

	for _, code := range []string{"12345", "1234567", "12a456"} {
		c, _ := newContext(http.MethodPost, "/api/auth/verify-reset-code", `{"email":"alice@example.com","code":"`+code+`"}`, nil)
		if got := httpErrorCode(t, h.VerifyResetCode(c)); got != http.StatusBadRequest {
			t.Fatalf("code %q: expected 400, got %d", code, got)
		}
	}
}

func TestPasswordHandler_ResetPassword(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusOK},
		{"dead code", domain.ErrCodeInvalidOrExpired, http.StatusBadRequest},
		{"user removed", domain.ErrUserNotFound, http.StatusBadRequest},
		{"weak password", fmt.Errorf("%w: too common", domain.ErrWeakPassword), http.StatusUnprocessableEntity},
		{"store down", fmt.Errorf("reset: %w: %w", domain.ErrStoreUnavailable, errors.New("timeout")), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{
				resetFn: func(_ context.Context, email, code, newPassword string) error {
					if email != "alice@example.com" || code != "123456" || newPassword != "N3wStr0ngPass!" {
						t.Fatalf("unexpected args: %s %s %s", email, code, newPassword)
					}
					return tt.err
				},
			}
			h := NewPasswordHandler(stub, true, zerolog.Nop())

			c, rec := newContext(http.MethodPost, "/api/auth/reset-password",
				`{"email":"alice@example.com","code":"123456","new_password":"N3wStr0ngPass!"}`, nil)
			if err := h.ResetPassword(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.err != nil && strings.Contains(rec.Body.String(), "user not found") {
				t.Fatalf("response reveals account existence: %s", rec.Body.String())
			}
		})
	}
}
