package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/adamchat/account-service/internal/api/handler"
	"github.com/adamchat/account-service/internal/core/domain"
)

type stubVerifier struct {
	claims *domain.AccessClaims
	err    error
	got    string
}

func (v *stubVerifier) VerifyAccess(_ context.Context, token string) (*domain.AccessClaims, error) {
	v.got = token
	return v.claims, v.err
}

func runAuth(t *testing.T, verifier *stubVerifier, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := Auth(verifier)(func(c echo.Context) error {
		called = true
		claims, ok := c.Get(handler.ClaimsKey).(*domain.AccessClaims)
		if !ok || claims.UserID != "u1" {
			t.Fatalf("claims not set: %#v", c.Get(handler.ClaimsKey))
		}
		if c.Get("user_id") != "u1" {
			t.Fatalf("user_id not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	v := &stubVerifier{claims: &domain.AccessClaims{UserID: "u1", ID: "jti-1"}}

	rec, called := runAuth(t, v, "Bearer good-token")

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if v.got != "good-token" {
		t.Fatalf("verifier got %q", v.got)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	v := &stubVerifier{claims: &domain.AccessClaims{UserID: "u1"}}

	rec, called := runAuth(t, v, "bearer good-token")

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec, called := runAuth(t, &stubVerifier{}, "")

	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	for _, header := range []string{"Token abc", "Bearer", "Bearer   "} {
		rec, called := runAuth(t, &stubVerifier{}, header)
		if called {
			t.Fatalf("%q: should not reach next", header)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthMiddleware_RejectedToken(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid", domain.ErrTokenInvalid, http.StatusUnauthorized},
		{"expired", domain.ErrTokenExpired, http.StatusUnauthorized},
		{"denylist down", fmt.Errorf("denylist: %w", domain.ErrStoreUnavailable), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called := runAuth(t, &stubVerifier{err: tt.err}, "Bearer tok")
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}
