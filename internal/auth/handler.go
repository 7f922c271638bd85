package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/daybook-app/daybook/internal/apperror"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "session_id"

// Handler handles HTTP requests for authentication. Handlers are thin: they
// bind the request, call the service, and write JSON. No business logic
// lives here.
type Handler struct {
	service Service
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register creates a new account (POST /auth/register). On success the
// response carries the new identity and a session cookie, so the client is
// signed in immediately.
func (h *Handler) Register(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	user, token, err := h.service.Register(c.Request().Context(), RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return c.JSON(http.StatusCreated, Identity{ID: user.ID, Email: user.Email})
}

// Login authenticates an existing account (POST /auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	user, token, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return c.JSON(http.StatusOK, Identity{ID: user.ID, Email: user.Email})
}

// Logout revokes the session and clears the cookie (POST /auth/logout).
// Always responds 204, even without a session to revoke.
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		if err := h.service.Logout(c.Request().Context(), token); err != nil {
			return err
		}
	}

	clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated identity (GET /auth/me), or 401 when the
// request carries no valid session.
func (h *Handler) Me(c echo.Context) error {
	identity := GetIdentity(c)
	if identity == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return c.JSON(http.StatusOK, identity)
}

// CheckEmail reports whether an account exists for the given address
// (GET /auth/check-email?email=). Public by design: the registration form
// uses it for inline feedback before submitting.
func (h *Handler) CheckEmail(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return apperror.NewBadRequest("missing email")
	}

	exists, err := h.service.EmailExists(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"exists": exists})
}

// --- Cookie helpers ---

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure behind TLS, and SameSite=Lax. Its
// max-age matches the server-side session TTL so the browser drops it
// around the time the row expires.
func (h *Handler) setSessionCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.service.SessionTTL().Seconds()),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
