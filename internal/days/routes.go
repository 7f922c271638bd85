package days

import (
	"github.com/labstack/echo/v4"

	"github.com/daybook-app/daybook/internal/auth"
)

// RegisterRoutes sets up all day-entry routes. The whole group fails closed:
// requests without a resolved identity get 401 before any handler runs.
// The static /summary segment is registered alongside /:id; Echo's router
// prefers the static match.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/days", auth.RequireUser())

	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/summary", h.Summary)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/close", h.Close)
}
