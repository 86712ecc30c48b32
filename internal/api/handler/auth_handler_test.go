package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-api/internal/api/middleware"
	"github.com/99minutos/auth-api/internal/core/domain"
	"github.com/99minutos/auth-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in *ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, creds *domain.Credentials) (*ports.LoginResult, error)
	listFn     func(ctx context.Context) ([]*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in *ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, creds *domain.Credentials) (*ports.LoginResult, error) {
	return s.loginFn(ctx, creds)
}

func (s *stubAuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in *ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.Email != "a@x.com" || in.FirstName != "Alice" || in.LastName != "A" || in.Password != "Abcdefg1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{Username: in.Username, Role: domain.RoleUser}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/api/users/register",
		`{"username":"alice","email":"a@x.com","firstName":"Alice","lastName":"A","password":"Abcdefg1"}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != msgRegistered {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestAuthHandler_Register_PassesServiceErrors(t *testing.T) {
	for _, want := range []error{
		domain.ErrDuplicateUsername,
		domain.ErrDuplicateEmail,
		&domain.PolicyViolationError{Violations: []string{"too short"}},
	} {
		stub := &stubAuthService{
			registerFn: func(ctx context.Context, in *ports.RegisterInput) (*domain.User, error) {
				return nil, want
			},
		}
		c, _ := newContext(http.MethodPost, "/api/users/register",
			`{"username":"bob","email":"b@x.com","password":"x"}`)

		err := NewAuthHandler(stub).Register(c)
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in *ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	tests := map[string]string{
		"not json":        "not-json",
		"missing email":   `{"username":"alice","password":"Abcdefg1"}`,
		"malformed email": `{"username":"alice","email":"nope","password":"Abcdefg1"}`,
		"missing pass":    `{"username":"alice","email":"a@x.com"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/api/users/register", body)
			expectHTTPError(t, handler.Register(c), http.StatusBadRequest)
		})
	}
}

func TestAuthHandler_Register_ValidationMessageUsesJSONNames(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})
	c, _ := newContext(http.MethodPost, "/api/users/register", `{"username":"alice","password":"x"}`)

	err := handler.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if msg, _ := he.Message.(string); msg != "email is required" {
		t.Fatalf("unexpected message: %v", he.Message)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	expires := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, creds *domain.Credentials) (*ports.LoginResult, error) {
			if creds.Username != "alice" || creds.Password != "Abcdefg1" {
				t.Fatalf("unexpected args: %+v", creds)
			}
			return &ports.LoginResult{
				Token: domain.Token{Value: "token123", ExpiresAt: expires},
				User:  &domain.User{Username: "alice", Role: domain.RoleUser},
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/api/users/login", `{"username":"alice","password":"Abcdefg1"}`)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" {
		t.Fatalf("expected token, got %v", resp.Token)
	}
	if !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expiry %v, got %v", expires, resp.ExpiresAt)
	}
	if resp.Message != msgLoggedIn {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestAuthHandler_Login_PassesServiceErrors(t *testing.T) {
	for _, want := range []error{
		domain.ErrInvalidCredentials,
		domain.ErrUserNotFound,
		domain.ErrTooManyAttempts,
	} {
		stub := &stubAuthService{
			loginFn: func(ctx context.Context, creds *domain.Credentials) (*ports.LoginResult, error) {
				return nil, want
			},
		}
		c, _ := newContext(http.MethodPost, "/api/users/login", `{"username":"alice","password":"bad"}`)

		err := NewAuthHandler(stub).Login(c)
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, creds *domain.Credentials) (*ports.LoginResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	for _, body := range []string{"{", `{"username":"alice"}`, `{"password":"x"}`} {
		c, _ := newContext(http.MethodPost, "/api/users/login", body)
		expectHTTPError(t, handler.Login(c), http.StatusBadRequest)
	}
}

func TestAuthHandler_ListUsers(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		listFn: func(ctx context.Context) ([]*domain.User, error) {
			return []*domain.User{
				{ID: "1", Username: "alice", Email: "a@x.com", PasswordHash: "secret-hash", Role: domain.RoleUser, CreatedAt: created},
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodGet, "/api/users", "")
	c.Set(middleware.ContextUsername, "alice")
	c.Set(middleware.ContextRole, domain.RoleUser)

	if err := handler.ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	var resp []userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0].Username != "alice" || resp[0].Role != domain.RoleUser {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_ListUsers_MissingClaims(t *testing.T) {
	stub := &stubAuthService{
		listFn: func(ctx context.Context) ([]*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodGet, "/api/users", "")

	expectHTTPError(t, NewAuthHandler(stub).ListUsers(c), http.StatusUnauthorized)
}

func TestResultOf(t *testing.T) {
	tests := map[error]string{
		nil:                                              "success",
		domain.ErrInvalidInput:                           "invalid_input",
		domain.ErrDuplicateEmail:                         "duplicate",
		domain.ErrUserNotFound:                           "not_found",
		domain.ErrInvalidCredentials:                     "invalid_credentials",
		domain.ErrTooManyAttempts:                        "throttled",
		errors.New("boom"):                               "error",
		domain.NewStoreError("list", errors.New("down")): "error",
	}
	for err, want := range tests {
		if got := resultOf(err); got != want {
			t.Fatalf("resultOf(%v) = %q, want %q", err, got, want)
		}
	}
	if got := resultOf(&domain.PolicyViolationError{Violations: []string{"x"}}); got != "policy_violation" {
		t.Fatalf("unexpected policy result %q", got)
	}
}
