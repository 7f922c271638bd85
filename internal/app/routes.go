package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/daybook-app/daybook/internal/auth"
	"github.com/daybook-app/daybook/internal/days"
	"github.com/daybook-app/daybook/internal/middleware"
)

// RegisterRoutes builds the repositories, services, and handlers, then sets
// up all application routes. This is the single place where the object
// graph is assembled; nothing holds module-level singletons.
func RegisterRoutes(a *App) {
	e := a.Echo

	// --- Auth wiring ---
	userRepo := auth.NewUserRepository(a.DB)
	sessionRepo := auth.NewSessionRepository(a.DB)
	authService := auth.NewService(userRepo, sessionRepo, a.Config.Auth.SessionTTL)
	authHandler := auth.NewHandler(authService)

	// Session resolution runs once per request, before any handler. It
	// attaches an identity or leaves the request anonymous; rejection is
	// the protected group's job.
	e.Use(auth.LoadSession(authService))
	middleware.UserIDExtractor = auth.GetUserID

	// --- Days wiring ---
	entryRepo := days.NewEntryRepository(a.DB)
	dayService := days.NewService(entryRepo)
	dayHandler := days.NewHandler(dayService)

	// --- Routes ---
	auth.RegisterRoutes(e, authHandler)
	days.RegisterRoutes(e, dayHandler)

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
