package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandlerRegister_SetsCookie(t *testing.T) {
	req := jsonRequest(http.MethodPost, "/auth/register", `{"email":"a@x.com","password":"secret1"}`)
	c, rec := newContext(t, req)

	h := NewHandler(&mockService{})
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"email":"a@x.com"`) {
		t.Errorf("expected identity in body, got %s", rec.Body.String())
	}

	setCookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, "session_id=token") {
		t.Errorf("expected session cookie, got %q", setCookie)
	}
	if !strings.Contains(setCookie, "HttpOnly") || !strings.Contains(setCookie, "SameSite=Lax") {
		t.Errorf("expected HttpOnly SameSite=Lax cookie, got %q", setCookie)
	}
}

func TestHandlerRegister_MalformedBody(t *testing.T) {
	req := jsonRequest(http.MethodPost, "/auth/register", `{not json`)
	c, _ := newContext(t, req)

	h := NewHandler(&mockService{})
	err := h.Register(c)
	assertAppError(t, err, 422)
}

func TestHandlerLogin_Success(t *testing.T) {
	req := jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"secret1"}`)
	c, rec := newContext(t, req)

	h := NewHandler(&mockService{})
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "session_id=token") {
		t.Error("expected session cookie on login")
	}
}

func TestHandlerLogout_ClearsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sometoken"})
	c, rec := newContext(t, req)

	var revoked string
	svc := &mockService{
		logoutFn: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}

	h := NewHandler(svc)
	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if revoked != "sometoken" {
		t.Errorf("expected server-side session revoked, got %q", revoked)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Error("expected cookie cleared on logout")
	}
}

func TestHandlerMe(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c, rec := newContext(t, req)
	c.Set(contextKeyIdentity, &Identity{ID: 42, Email: "alice@example.com"})

	h := NewHandler(&mockService{})
	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":42`) {
		t.Errorf("expected identity in body, got %s", rec.Body.String())
	}
}

func TestHandlerMe_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c, _ := newContext(t, req)

	h := NewHandler(&mockService{})
	err := h.Me(c)
	assertAppError(t, err, 401)
}

func TestHandlerCheckEmail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/check-email?email=a@x.com", nil)
	c, rec := newContext(t, req)

	svc := &mockService{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}

	h := NewHandler(svc)
	if err := h.CheckEmail(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"exists":true`) {
		t.Errorf("expected exists true, got %s", rec.Body.String())
	}
}

func TestHandlerCheckEmail_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/check-email", nil)
	c, _ := newContext(t, req)

	h := NewHandler(&mockService{})
	err := h.CheckEmail(c)
	assertAppError(t, err, 400)
}
