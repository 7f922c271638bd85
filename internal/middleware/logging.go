// Package middleware provides HTTP middleware for the daybook Echo server.
// Middleware here is transport-level only (logging, recovery, headers);
// session resolution lives in internal/auth so it can reach the session
// store without this package importing domain types.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// UserIDExtractor is an optional callback that returns the authenticated
// user id for the current request, or 0 for anonymous requests. Registered
// once at startup by the app so the request logger can tag log lines
// without importing the auth package.
var UserIDExtractor func(echo.Context) int64

// RequestLogger returns middleware that logs every HTTP request with
// structured fields: method, path, status, latency, and remote IP.
// Uses Go's built-in slog for structured logging.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Log after the request completes so we have the status code.
			latency := time.Since(start)
			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", latency),
				slog.String("remote_ip", c.RealIP()),
			}

			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}

			// Tag the line with the resolved user, if any.
			if UserIDExtractor != nil {
				if uid := UserIDExtractor(c); uid != 0 {
					attrs = append(attrs, slog.Int64("user_id", uid))
				}
			}

			// Log at different levels based on status code.
			level := slog.LevelInfo
			if res.Status >= 500 {
				level = slog.LevelError
			} else if res.Status >= 400 {
				level = slog.LevelWarn
			}

			slog.LogAttrs(req.Context(), level, "request", attrs...)

			return err
		}
	}
}
