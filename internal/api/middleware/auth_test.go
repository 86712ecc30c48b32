package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-api/internal/core/domain"
	"github.com/99minutos/auth-api/internal/core/service"
)

const testSecret = "middleware-signing-secret-0123456789"

type staticSecret []byte

func (s staticSecret) SigningKey() ([]byte, error) { return s, nil }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func issueToken(t *testing.T, secret string, issuedAt time.Time) string {
	t.Helper()
	issuer := service.NewTokenIssuer(staticSecret(secret), fixedClock{issuedAt})
	tok, err := issuer.Issue(&domain.User{Username: "alice", FirstName: "Alice", LastName: "A", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok.Value
}

func runAuth(t *testing.T, header string, verifier TokenVerifier) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(verifier)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	verifier := service.NewTokenIssuer(staticSecret(testSecret), nil)
	signed := issueToken(t, testSecret, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(verifier)(func(c echo.Context) error {
		called = true
		if c.Get(ContextUsername) != "alice" {
			t.Fatalf("username not set")
		}
		if c.Get(ContextRole) != domain.RoleUser {
			t.Fatalf("role not set")
		}
		if c.Get(ContextName) != "Alice A" {
			t.Fatalf("name not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	verifier := service.NewTokenIssuer(staticSecret(testSecret), nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + issueToken(t, "other-signing-secret-0123456789abcdef", time.Now())},
		{"expired", "Bearer " + issueToken(t, testSecret, time.Now().Add(-48*time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called := runAuth(t, tt.header, verifier)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
