package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all auth routes on the given Echo instance. All of
// them are public: register/login establish a session, logout and me work
// off whatever session the request carries.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/auth")

	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me)
	g.GET("/check-email", h.CheckEmail)
}
