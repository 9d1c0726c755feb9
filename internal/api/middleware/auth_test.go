package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

// stubAuthService implements only AuthenticateUser; the gate needs nothing else.
type stubAuthService struct {
	ports.AuthService
	authenticateFn func(ctx context.Context, in ports.LoginInput) (*domain.AuthenticationResult, error)
}

func (s *stubAuthService) AuthenticateUser(ctx context.Context, in ports.LoginInput) (*domain.AuthenticationResult, error) {
	return s.authenticateFn(ctx, in)
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func runGate(t *testing.T, stub *stubAuthService, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := BasicAuth(stub, zerolog.Nop())(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestBasicAuth_ValidCredentials(t *testing.T) {
	stub := &stubAuthService{
		authenticateFn: func(_ context.Context, in ports.LoginInput) (*domain.AuthenticationResult, error) {
			if in.Username != "alice" || in.Password != "Secret1" {
				t.Fatalf("unexpected credentials %+v", in)
			}
			return &domain.AuthenticationResult{
				Message:  domain.MsgLoginSuccessful,
				Success:  true,
				Identity: &domain.Identity{UserID: "u-1", Username: "alice", Roles: []string{"USER"}},
			}, nil
		},
	}

	called := false
	rec := runGate(t, stub, basic("alice", "Secret1"), func(c echo.Context) error {
		called = true
		p := Principal(c)
		if p == nil || p.Username != "alice" || !p.Holds(domain.RoleUser) {
			t.Fatalf("principal not set: %+v", p)
		}
		return c.NoContent(http.StatusOK)
	})

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next to run with 200, got called=%v code=%d", called, rec.Code)
	}
}

func TestBasicAuth_BadCredentials(t *testing.T) {
	stub := &stubAuthService{
		authenticateFn: func(context.Context, ports.LoginInput) (*domain.AuthenticationResult, error) {
			return domain.Failed(domain.MsgInvalidCredential), nil
		},
	}

	rec := runGate(t, stub, basic("alice", "wrong"), func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != Challenge {
		t.Fatalf("unexpected challenge %q", got)
	}
}

func TestBasicAuth_DisabledAccountRejected(t *testing.T) {
	stub := &stubAuthService{
		authenticateFn: func(context.Context, ports.LoginInput) (*domain.AuthenticationResult, error) {
			return domain.Failed(domain.MsgAccountDisabled), nil
		},
	}

	rec := runGate(t, stub, basic("carl", "pw"), func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBasicAuth_NoHeaderPassesAnonymously(t *testing.T) {
	stub := &stubAuthService{
		authenticateFn: func(context.Context, ports.LoginInput) (*domain.AuthenticationResult, error) {
			t.Fatalf("must not authenticate without credentials")
			return nil, nil
		},
	}

	rec := runGate(t, stub, "", func(c echo.Context) error {
		if Principal(c) != nil {
			t.Fatalf("anonymous request must have no principal")
		}
		return c.NoContent(http.StatusNoContent)
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestBasicAuth_StoreFailure(t *testing.T) {
	stub := &stubAuthService{
		authenticateFn: func(context.Context, ports.LoginInput) (*domain.AuthenticationResult, error) {
			return nil, errors.New("mongo down")
		},
	}

	rec := runGate(t, stub, basic("alice", "pw"), func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestLoginOutcome(t *testing.T) {
	cases := map[string]string{
		domain.MsgAccountDisabled:   "disabled",
		domain.MsgAccountLocked:     "locked",
		domain.MsgInvalidCredential: "invalid_credentials",
	}
	for msg, want := range cases {
		if got := LoginOutcome(msg); got != want {
			t.Fatalf("LoginOutcome(%q) = %q, want %q", msg, got, want)
		}
	}
}
