package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/daybook-app/daybook/internal/apperror"
)

// Context key for the resolved identity in the Echo context. Other packages
// read it via the exported getters below.
const contextKeyIdentity = "auth_identity"

// LoadSession returns middleware that resolves the session cookie once per
// request and attaches the resulting identity to the Echo context. An
// absent, expired, or orphaned session leaves the request anonymous; that
// is not an error until a protected handler rejects it. A stale cookie
// whose session is dead is cleared so browsers stop sending it.
//
// Storage failures during resolution are fatal to the request.
func LoadSession(service Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return next(c)
			}

			identity, err := service.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}
			if identity == nil {
				clearSessionCookie(c)
				return next(c)
			}

			SetIdentity(c, identity)
			return next(c)
		}
	}
}

// RequireUser returns middleware that rejects anonymous requests with 401.
// It must run after LoadSession. Protected route groups (days) use it so
// their handlers can assume an identity is present.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetIdentity(c) == nil {
				return apperror.NewUnauthorized("authentication required")
			}
			return next(c)
		}
	}
}

// --- Exported accessors for other packages ---

// SetIdentity attaches an identity to the Echo context. Used by LoadSession
// and by handler tests in other packages.
func SetIdentity(c echo.Context, identity *Identity) {
	c.Set(contextKeyIdentity, identity)
}

// GetIdentity retrieves the authenticated identity from the Echo context.
// Returns nil for anonymous requests.
func GetIdentity(c echo.Context) *Identity {
	identity, ok := c.Get(contextKeyIdentity).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns 0 for anonymous requests.
func GetUserID(c echo.Context) int64 {
	identity := GetIdentity(c)
	if identity == nil {
		return 0
	}
	return identity.ID
}
