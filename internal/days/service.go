package days

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/daybook-app/daybook/internal/apperror"
)

// dateRx matches the YYYY-MM-DD shape; real calendar validity (month 13,
// day 32) is checked with time.Parse afterwards.
var dateRx = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Service defines the business logic contract for day entries. Every method
// takes the resolved user id as its first argument; handlers obtain it from
// the request authenticator and this package trusts it.
type Service interface {
	Create(ctx context.Context, userID int64, input EntryInput) (*DayEntry, error)
	Update(ctx context.Context, userID, id int64, input EntryInput) (*DayEntry, error)
	Get(ctx context.Context, userID, id int64) (*DayEntry, error)
	Delete(ctx context.Context, userID, id int64) error
	List(ctx context.Context, userID int64, from, to string) ([]DayEntry, error)

	// Close finishes an open entry, defaulting to the current wall-clock
	// time. Closing an already-closed entry is a no-op, not an error.
	Close(ctx context.Context, userID, id int64, endTime string) (*DayEntry, error)

	// Summarize computes total and per-day hour aggregates for the range.
	Summarize(ctx context.Context, userID int64, from, to string) (*DaysSummary, error)
}

// dayService implements Service on top of an EntryRepository.
type dayService struct {
	repo EntryRepository
	now  func() time.Time
}

// NewService creates a new day-entry service.
func NewService(repo EntryRepository) Service {
	return &dayService{repo: repo, now: time.Now}
}

// Create validates the input, derives hours, and persists a new entry.
func (s *dayService) Create(ctx context.Context, userID int64, input EntryInput) (*DayEntry, error) {
	entry, err := buildEntry(userID, input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, translateStoreError(err, "creating day entry")
	}

	return entry, nil
}

// Update is a full replacement: all fields are re-validated and hours is
// re-derived, exactly as in Create. The ownership check runs before the
// write; a row that is missing or owned by another user is the same 404.
func (s *dayService) Update(ctx context.Context, userID, id int64, input EntryInput) (*DayEntry, error) {
	if _, err := s.repo.FindOwnedByID(ctx, userID, id); err != nil {
		return nil, translateStoreError(err, "finding day entry")
	}

	entry, err := buildEntry(userID, input)
	if err != nil {
		return nil, err
	}
	entry.ID = id

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, translateStoreError(err, "updating day entry")
	}

	return entry, nil
}

// Get returns one owned entry.
func (s *dayService) Get(ctx context.Context, userID, id int64) (*DayEntry, error) {
	entry, err := s.repo.FindOwnedByID(ctx, userID, id)
	if err != nil {
		return nil, translateStoreError(err, "finding day entry")
	}
	return entry, nil
}

// Delete removes one owned entry.
func (s *dayService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return translateStoreError(err, "deleting day entry")
	}
	return nil
}

// List returns the user's entries for the optional inclusive range, most
// recent first. Bounds arrive pre-screened by the handler (malformed bounds
// are dropped there, per the API contract).
func (s *dayService) List(ctx context.Context, userID int64, from, to string) ([]DayEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, translateStoreError(err, "listing day entries")
	}
	return entries, nil
}

// Close is a composition over Get and Update, not a separate storage path.
// An empty endTime means "now" in the server's wall clock.
func (s *dayService) Close(ctx context.Context, userID, id int64, endTime string) (*DayEntry, error) {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if entry.TimeEnd != nil {
		return entry, nil
	}

	if endTime == "" {
		endTime = s.now().Format("15:04")
	}

	return s.Update(ctx, userID, id, EntryInput{
		Date:      entry.Date,
		TimeStart: entry.TimeStart,
		TimeEnd:   endTime,
		Location:  entry.Location,
	})
}

// Summarize aggregates hours for the user's entries in the optional range.
// From/To are echoed back only when the caller supplied them.
func (s *dayService) Summarize(ctx context.Context, userID int64, from, to string) (*DaysSummary, error) {
	total, perDay, err := s.repo.Summarize(ctx, userID, from, to)
	if err != nil {
		return nil, translateStoreError(err, "summarizing day entries")
	}

	return &DaysSummary{
		From:       from,
		To:         to,
		TotalHours: total,
		Days:       perDay,
	}, nil
}

// --- Validation and derivation ---

// buildEntry validates the input and returns an entry with hours derived
// server-side. An empty timeEnd is normalized to nil (open entry). The
// validation runs before any write ever happens.
func buildEntry(userID int64, input EntryInput) (*DayEntry, error) {
	date := strings.TrimSpace(input.Date)
	if err := validateDate(date); err != nil {
		return nil, err
	}

	startMin, err := parseClock(input.TimeStart)
	if err != nil {
		return nil, apperror.NewValidation("invalid timeStart: " + err.Error())
	}

	entry := &DayEntry{
		Date:      date,
		TimeStart: input.TimeStart,
		UserID:    userID,
		Location:  input.Location,
	}

	if input.TimeEnd != "" {
		endMin, err := parseClock(input.TimeEnd)
		if err != nil {
			return nil, apperror.NewValidation("invalid timeEnd: " + err.Error())
		}
		if endMin < startMin {
			return nil, apperror.NewValidation("timeEnd must not precede timeStart")
		}
		end := input.TimeEnd
		entry.TimeEnd = &end
		entry.Hours = float64(endMin-startMin) / 60
	}

	entry.derive()
	return entry, nil
}

// validateDate requires the YYYY-MM-DD shape and a real calendar date.
func validateDate(date string) error {
	if !dateRx.MatchString(date) {
		return apperror.NewValidation("date must be formatted YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperror.NewValidation("date is not a valid calendar date")
	}
	return nil
}

// parseClock parses an HH:MM time-of-day into minutes since midnight.
// Malformed numeric components are an error, never a silent zero.
func parseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%q must be formatted HH:MM", value)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%q has a malformed hour component", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%q has a malformed minute component", value)
	}

	if hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%q hour out of range", value)
	}
	if minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%q minute out of range", value)
	}

	return hours*60 + minutes, nil
}

// translateStoreError passes typed domain errors through untouched and
// wraps anything else as internal, so repository plumbing failures never
// leak their details to the client.
func translateStoreError(err error, action string) error {
	if _, ok := err.(*apperror.AppError); ok {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", action, err))
}
