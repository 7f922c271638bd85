package days

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/daybook-app/daybook/internal/apperror"
	"github.com/daybook-app/daybook/internal/auth"
)

// --- Mock Service ---

// mockDayService implements Service for handler tests.
type mockDayService struct {
	createFn    func(ctx context.Context, userID int64, input EntryInput) (*DayEntry, error)
	updateFn    func(ctx context.Context, userID, id int64, input EntryInput) (*DayEntry, error)
	getFn       func(ctx context.Context, userID, id int64) (*DayEntry, error)
	deleteFn    func(ctx context.Context, userID, id int64) error
	listFn      func(ctx context.Context, userID int64, from, to string) ([]DayEntry, error)
	closeFn     func(ctx context.Context, userID, id int64, endTime string) (*DayEntry, error)
	summarizeFn func(ctx context.Context, userID int64, from, to string) (*DaysSummary, error)
}

func (m *mockDayService) Create(ctx context.Context, userID int64, input EntryInput) (*DayEntry, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return &DayEntry{ID: 1, UserID: userID, Date: input.Date, TimeStart: input.TimeStart}, nil
}

func (m *mockDayService) Update(ctx context.Context, userID, id int64, input EntryInput) (*DayEntry, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, input)
	}
	return &DayEntry{ID: id, UserID: userID, Date: input.Date, TimeStart: input.TimeStart}, nil
}

func (m *mockDayService) Get(ctx context.Context, userID, id int64) (*DayEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return &DayEntry{ID: id, UserID: userID}, nil
}

func (m *mockDayService) Delete(ctx context.Context, userID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockDayService) List(ctx context.Context, userID int64, from, to string) ([]DayEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, from, to)
	}
	return []DayEntry{}, nil
}

func (m *mockDayService) Close(ctx context.Context, userID, id int64, endTime string) (*DayEntry, error) {
	if m.closeFn != nil {
		return m.closeFn(ctx, userID, id, endTime)
	}
	return &DayEntry{ID: id, UserID: userID}, nil
}

func (m *mockDayService) Summarize(ctx context.Context, userID int64, from, to string) (*DaysSummary, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, userID, from, to)
	}
	return &DaysSummary{Days: []SummaryDay{}}, nil
}

// --- Test Helpers ---

// entryContext builds an Echo context for an authenticated request.
func entryContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetIdentity(c, &auth.Identity{ID: 42, Email: "test@example.com"})
	return c, rec
}

func setEntryID(c echo.Context, id string) {
	c.SetParamNames("id")
	c.SetParamValues(id)
}

// --- List Tests ---

func TestHandlerList_ForwardsUserAndRange(t *testing.T) {
	var gotUser int64
	var gotFrom, gotTo string
	service := &mockDayService{
		listFn: func(ctx context.Context, userID int64, from, to string) ([]DayEntry, error) {
			gotUser, gotFrom, gotTo = userID, from, to
			return []DayEntry{{ID: 1, Date: "2024-01-05"}}, nil
		},
	}

	c, rec := entryContext(t, http.MethodGet, "/days?from=2024-01-01&to=2024-01-31", "")
	handler := NewHandler(service)

	if err := handler.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if gotUser != 42 || gotFrom != "2024-01-01" || gotTo != "2024-01-31" {
		t.Errorf("unexpected scope (%d, %q, %q)", gotUser, gotFrom, gotTo)
	}
}

func TestHandlerList_DropsMalformedBounds(t *testing.T) {
	var gotFrom, gotTo string
	service := &mockDayService{
		listFn: func(ctx context.Context, userID int64, from, to string) ([]DayEntry, error) {
			gotFrom, gotTo = from, to
			return []DayEntry{}, nil
		},
	}

	c, _ := entryContext(t, http.MethodGet, "/days?from=notadate&to=2024-01-31", "")
	handler := NewHandler(service)

	if err := handler.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFrom != "" {
		t.Errorf("expected malformed from dropped, got %q", gotFrom)
	}
	if gotTo != "2024-01-31" {
		t.Errorf("expected valid to kept, got %q", gotTo)
	}
}

// --- Create Tests ---

func TestHandlerCreate_Success(t *testing.T) {
	service := &mockDayService{
		createFn: func(ctx context.Context, userID int64, input EntryInput) (*DayEntry, error) {
			end := "17:30"
			return &DayEntry{ID: 1, UserID: userID, Date: input.Date, TimeStart: input.TimeStart, TimeEnd: &end, Hours: 8.5}, nil
		},
	}

	c, rec := entryContext(t, http.MethodPost, "/days",
		`{"date":"2024-01-01","timeStart":"09:00","timeEnd":"17:30"}`)
	handler := NewHandler(service)

	if err := handler.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var body DayEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Hours != 8.5 {
		t.Errorf("expected 8.5 hours in response, got %v", body.Hours)
	}
}

func TestHandlerCreate_MalformedBody(t *testing.T) {
	c, _ := entryContext(t, http.MethodPost, "/days", `{not json`)
	handler := NewHandler(&mockDayService{})

	err := handler.Create(c)
	assertAppError(t, err, 422)
}

func TestHandlerCreate_ValidationErrorPassthrough(t *testing.T) {
	service := &mockDayService{
		createFn: func(ctx context.Context, userID int64, input EntryInput) (*DayEntry, error) {
			return nil, apperror.NewValidation("timeEnd must not precede timeStart")
		},
	}

	c, _ := entryContext(t, http.MethodPost, "/days",
		`{"date":"2024-01-01","timeStart":"17:00","timeEnd":"09:00"}`)
	handler := NewHandler(service)

	err := handler.Create(c)
	assertAppError(t, err, 422)
}

// --- ID Parsing Tests ---

func TestHandlerGet_InvalidID(t *testing.T) {
	handler := NewHandler(&mockDayService{})

	for _, id := range []string{"abc", "0", "-1", "1.5", ""} {
		c, _ := entryContext(t, http.MethodGet, "/days/"+id, "")
		setEntryID(c, id)

		err := handler.Get(c)
		assertAppError(t, err, 422)
	}
}

func TestHandlerGet_Success(t *testing.T) {
	service := &mockDayService{
		getFn: func(ctx context.Context, userID, id int64) (*DayEntry, error) {
			return &DayEntry{ID: id, UserID: userID, Date: "2024-01-01", TimeStart: "09:00"}, nil
		},
	}

	c, rec := entryContext(t, http.MethodGet, "/days/7", "")
	setEntryID(c, "7")
	handler := NewHandler(service)

	if err := handler.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandlerGet_NotFoundPassthrough(t *testing.T) {
	service := &mockDayService{
		getFn: func(ctx context.Context, userID, id int64) (*DayEntry, error) {
			return nil, apperror.NewNotFound("day entry not found")
		},
	}

	c, _ := entryContext(t, http.MethodGet, "/days/7", "")
	setEntryID(c, "7")
	handler := NewHandler(service)

	err := handler.Get(c)
	assertAppError(t, err, 404)
}

// --- Update Tests ---

func TestHandlerUpdate_Success(t *testing.T) {
	var gotID int64
	service := &mockDayService{
		updateFn: func(ctx context.Context, userID, id int64, input EntryInput) (*DayEntry, error) {
			gotID = id
			return &DayEntry{ID: id, UserID: userID, Date: input.Date, TimeStart: input.TimeStart}, nil
		},
	}

	c, rec := entryContext(t, http.MethodPut, "/days/7",
		`{"date":"2024-01-02","timeStart":"10:00"}`)
	setEntryID(c, "7")
	handler := NewHandler(service)

	if err := handler.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if gotID != 7 {
		t.Errorf("expected id 7, got %d", gotID)
	}
}

// --- Delete Tests ---

func TestHandlerDelete_Success(t *testing.T) {
	c, rec := entryContext(t, http.MethodDelete, "/days/7", "")
	setEntryID(c, "7")
	handler := NewHandler(&mockDayService{})

	if err := handler.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandlerDelete_NotFound(t *testing.T) {
	service := &mockDayService{
		deleteFn: func(ctx context.Context, userID, id int64) error {
			return apperror.NewNotFound("day entry not found")
		},
	}

	c, _ := entryContext(t, http.MethodDelete, "/days/7", "")
	setEntryID(c, "7")
	handler := NewHandler(service)

	err := handler.Delete(c)
	assertAppError(t, err, 404)
}

// --- Close Tests ---

func TestHandlerClose_EmptyBodyDefaultsTime(t *testing.T) {
	var gotEnd string
	service := &mockDayService{
		closeFn: func(ctx context.Context, userID, id int64, endTime string) (*DayEntry, error) {
			gotEnd = endTime
			end := "18:45"
			return &DayEntry{ID: id, UserID: userID, TimeEnd: &end}, nil
		},
	}

	c, rec := entryContext(t, http.MethodPost, "/days/7/close", "")
	setEntryID(c, "7")
	handler := NewHandler(service)

	if err := handler.Close(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if gotEnd != "" {
		t.Errorf("expected empty end time for bodyless close, got %q", gotEnd)
	}
}

func TestHandlerClose_WithTime(t *testing.T) {
	var gotEnd string
	service := &mockDayService{
		closeFn: func(ctx context.Context, userID, id int64, endTime string) (*DayEntry, error) {
			gotEnd = endTime
			return &DayEntry{ID: id, UserID: userID, TimeEnd: &endTime}, nil
		},
	}

	c, _ := entryContext(t, http.MethodPost, "/days/7/close", `{"timeEnd":"17:30"}`)
	setEntryID(c, "7")
	handler := NewHandler(service)

	if err := handler.Close(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotEnd != "17:30" {
		t.Errorf("expected 17:30 forwarded, got %q", gotEnd)
	}
}

// --- Summary Tests ---

func TestHandlerSummary_Success(t *testing.T) {
	service := &mockDayService{
		summarizeFn: func(ctx context.Context, userID int64, from, to string) (*DaysSummary, error) {
			return &DaysSummary{
				From:       from,
				To:         to,
				TotalHours: 8.5,
				Days:       []SummaryDay{{Date: "2024-01-01", TotalHours: 8.5, Entries: 1}},
			}, nil
		},
	}

	c, rec := entryContext(t, http.MethodGet, "/days/summary?from=2024-01-01&to=2024-01-31", "")
	handler := NewHandler(service)

	if err := handler.Summary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body DaysSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.TotalHours != 8.5 || len(body.Days) != 1 {
		t.Errorf("unexpected summary body: %+v", body)
	}
}
