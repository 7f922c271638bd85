package days

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/daybook-app/daybook/internal/apperror"
	"github.com/daybook-app/daybook/internal/auth"
)

// Handler handles HTTP requests for day entries. Handlers are thin: bind,
// call the service with the authenticated user id, write JSON. All routes
// sit behind auth.RequireUser, so GetUserID never returns zero here.
type Handler struct {
	service Service
}

// NewHandler creates a new day-entry handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List returns the user's entries (GET /days?from=&to=). Malformed bounds
// are ignored rather than rejected.
func (h *Handler) List(c echo.Context) error {
	from, to := dateRangeParams(c)

	entries, err := h.service.List(c.Request().Context(), auth.GetUserID(c), from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}

// Create adds a new entry (POST /days).
func (h *Handler) Create(c echo.Context) error {
	var input EntryInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewValidation("invalid day entry")
	}

	entry, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, entry)
}

// Get returns one entry (GET /days/:id).
func (h *Handler) Get(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}

	entry, err := h.service.Get(c.Request().Context(), auth.GetUserID(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}

// Update fully replaces one entry (PUT /days/:id).
func (h *Handler) Update(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}

	var input EntryInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewValidation("invalid day entry")
	}

	entry, err := h.service.Update(c.Request().Context(), auth.GetUserID(c), id, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}

// Delete removes one entry (DELETE /days/:id).
func (h *Handler) Delete(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), auth.GetUserID(c), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Close finishes an open entry (POST /days/:id/close). The body is optional;
// without a timeEnd the entry closes at the current server time.
func (h *Handler) Close(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}

	var req CloseRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid close request")
	}

	entry, err := h.service.Close(c.Request().Context(), auth.GetUserID(c), id, req.TimeEnd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}

// Summary returns aggregated hours (GET /days/summary?from=&to=).
func (h *Handler) Summary(c echo.Context) error {
	from, to := dateRangeParams(c)

	summary, err := h.service.Summarize(c.Request().Context(), auth.GetUserID(c), from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

// --- Helpers ---

// entryID parses the :id route parameter. A non-numeric id is a validation
// failure, not a 404.
func entryID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation("invalid id")
	}
	return id, nil
}

// dateRangeParams reads the optional from/to query parameters, dropping any
// value that is not a well-formed calendar date.
func dateRangeParams(c echo.Context) (string, string) {
	from := c.QueryParam("from")
	if validateDate(from) != nil {
		from = ""
	}
	to := c.QueryParam("to")
	if validateDate(to) != nil {
		to = ""
	}
	return from, to
}
