package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// mockService implements Service for middleware and handler tests.
type mockService struct {
	registerFn     func(ctx context.Context, input RegisterInput) (*User, string, error)
	loginFn        func(ctx context.Context, input LoginInput) (*User, string, error)
	authenticateFn func(ctx context.Context, token string) (*Identity, error)
	logoutFn       func(ctx context.Context, token string) error
	emailExistsFn  func(ctx context.Context, email string) (bool, error)
}

func (m *mockService) Register(ctx context.Context, input RegisterInput) (*User, string, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return &User{ID: 1, Email: input.Email}, "token", nil
}

func (m *mockService) Login(ctx context.Context, input LoginInput) (*User, string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, input)
	}
	return &User{ID: 1, Email: input.Email}, "token", nil
}

func (m *mockService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return nil, nil
}

func (m *mockService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockService) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockService) SessionTTL() time.Duration {
	return 168 * time.Hour
}

// newContext builds an Echo context for the given request.
func newContext(t *testing.T, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// passthrough is a next-handler that records whether it ran.
func passthrough(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.NoContent(http.StatusOK)
	}
}

// --- LoadSession Tests ---

func TestLoadSession_NoCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/days", nil)
	c, _ := newContext(t, req)

	var called bool
	mw := LoadSession(&mockService{})
	if err := mw(passthrough(&called))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected next handler to run for anonymous request")
	}
	if GetIdentity(c) != nil {
		t.Error("expected no identity without a cookie")
	}
}

func TestLoadSession_LiveSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/days", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "livetoken"})
	c, _ := newContext(t, req)

	svc := &mockService{
		authenticateFn: func(ctx context.Context, token string) (*Identity, error) {
			if token != "livetoken" {
				t.Errorf("expected livetoken, got %s", token)
			}
			return &Identity{ID: 42, Email: "alice@example.com"}, nil
		},
	}

	var called bool
	if err := LoadSession(svc)(passthrough(&called))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected next handler to run")
	}

	identity := GetIdentity(c)
	if identity == nil || identity.ID != 42 {
		t.Errorf("expected identity 42, got %+v", identity)
	}
	if GetUserID(c) != 42 {
		t.Errorf("expected GetUserID 42, got %d", GetUserID(c))
	}
}

func TestLoadSession_DeadTokenClearsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/days", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "staletoken"})
	c, rec := newContext(t, req)

	var called bool
	if err := LoadSession(&mockService{})(passthrough(&called))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected request to continue anonymously")
	}
	if GetIdentity(c) != nil {
		t.Error("expected no identity for dead token")
	}

	// The stale cookie must be cleared so the browser stops sending it.
	setCookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, sessionCookieName+"=") || !strings.Contains(setCookie, "Max-Age=0") {
		t.Errorf("expected cookie to be cleared, got %q", setCookie)
	}
}

// --- RequireUser Tests ---

func TestRequireUser_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/days", nil)
	c, _ := newContext(t, req)

	var called bool
	err := RequireUser()(passthrough(&called))(c)
	assertAppError(t, err, 401)
	if called {
		t.Error("expected handler not to run for anonymous request")
	}
}

func TestRequireUser_Authenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/days", nil)
	c, _ := newContext(t, req)
	c.Set(contextKeyIdentity, &Identity{ID: 42, Email: "alice@example.com"})

	var called bool
	if err := RequireUser()(passthrough(&called))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to run for authenticated request")
	}
}
