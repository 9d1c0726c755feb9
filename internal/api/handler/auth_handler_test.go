package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

type stubAuthService struct {
	ports.AuthService
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.AuthenticationResult, error)
	loginFn    func(ctx context.Context, in ports.LoginInput) (*domain.AuthenticationResult, error)
}

func (s *stubAuthService) RegisterUser(ctx context.Context, in ports.RegisterInput) (*domain.AuthenticationResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) AuthenticateUser(ctx context.Context, in ports.LoginInput) (*domain.AuthenticationResult, error) {
	return s.loginFn(ctx, in)
}

func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.AuthenticationResult, error) {
			if in.Username != "alice" || in.Password != "Secret1" || len(in.RoleNames) != 1 || in.RoleNames[0] != "USER" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.AuthenticationResult{
				Message: domain.MsgRegistered,
				Success: true,
				Identity: &domain.Identity{
					UserID: "u-1", Username: "alice", Email: "alice@example.com", Roles: []string{"USER"},
				},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/register",
		`{"username":"alice","password":"Secret1","email":"alice@example.com","roleNames":["USER"]}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["success"] != true || resp["userId"] != "u-1" || resp["username"] != "alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.AuthenticationResult, error) {
			return domain.UserExists("bob"), nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/register", `{"username":"bob","password":"x"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["message"] != "User already exists with username: bob" || resp["success"] != false {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, ok := resp["userId"]; ok {
		t.Fatalf("failure must not carry identity fields: %+v", resp)
	}
}

func TestAuthHandler_Register_RoleNotFound(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.AuthenticationResult, error) {
			return nil, &domain.RoleNotFoundError{Name: "GHOST"}
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/register", `{"username":"carol","password":"x","roleNames":["GHOST"]}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decode(t, rec); resp["message"] != "Role not found: GHOST" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.AuthenticationResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", "not-json", "invalid payload"},
		{"missing username", `{"password":"x"}`, "username is required"},
		{"bad email", `{"username":"a","password":"x","email":"nope"}`, "email must be a valid email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newJSONContext(http.MethodPost, "/api/auth/register", tc.body)
			_ = handler.Register(c)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if resp := decode(t, rec); resp["message"] != tc.want {
				t.Fatalf("expected %q, got %+v", tc.want, resp)
			}
		})
	}
}

func TestAuthHandler_Register_InfrastructureError(t *testing.T) {
	boom := errors.New("mongo down")
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.AuthenticationResult, error) {
			return nil, boom
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, _ := newJSONContext(http.MethodPost, "/api/auth/register", `{"username":"a","password":"x"}`)
	if err := handler.Register(c); !errors.Is(err, boom) {
		t.Fatalf("expected error to reach the central handler, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, in ports.LoginInput) (*domain.AuthenticationResult, error) {
			if in.Username != "alice" || in.Password != "Secret1" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return &domain.AuthenticationResult{
				Message:  domain.MsgLoginSuccessful,
				Success:  true,
				Identity: &domain.Identity{UserID: "u-1", Username: "alice", Roles: []string{"USER"}},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"Secret1"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["message"] != "Login successful" || resp["username"] != "alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	for _, msg := range []string{domain.MsgInvalidCredential, domain.MsgAccountDisabled, domain.MsgAccountLocked} {
		t.Run(msg, func(t *testing.T) {
			stub := &stubAuthService{
				loginFn: func(context.Context, ports.LoginInput) (*domain.AuthenticationResult, error) {
					return domain.Failed(msg), nil
				},
			}
			handler := NewAuthHandler(stub, zerolog.Nop())

			c, rec := newJSONContext(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"bad"}`)
			_ = handler.Login(c)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			resp := decode(t, rec)
			if resp["message"] != msg || len(resp) != 2 {
				t.Fatalf("expected only message and success, got %+v", resp)
			}
		})
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, ports.LoginInput) (*domain.AuthenticationResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/login", `{"username":"alice"}`)
	_ = handler.Login(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_PublicEndpoints(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, zerolog.Nop())

	c, rec := newJSONContext(http.MethodGet, "/api/auth/public/health", "")
	if err := handler.PublicHealth(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("PublicHealth: %v, %d", err, rec.Code)
	}
	if resp := decode(t, rec); resp["message"] != "Authentication service is running" || resp["success"] != true {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	c, rec = newJSONContext(http.MethodPost, "/api/auth/logout", "")
	if err := handler.Logout(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("Logout: %v, %d", err, rec.Code)
	}
	if resp := decode(t, rec); resp["message"] != "Logout successful" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
