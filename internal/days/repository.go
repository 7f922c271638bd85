package days

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/daybook-app/daybook/internal/apperror"
)

// uniqueKeyName is the unique key on days(user_id, date, time_start). The
// duplicate-key translation below matches this name so only THIS constraint
// becomes a conflict; any other driver error propagates unrecovered.
const uniqueKeyName = "uq_days_user_date_start"

// EntryRepository defines the data access contract for day entries. Every
// read and write is scoped by user id; there is no unscoped access path, so
// a caller cannot reach another user's rows even by id.
type EntryRepository interface {
	Create(ctx context.Context, entry *DayEntry) error
	FindOwnedByID(ctx context.Context, userID, id int64) (*DayEntry, error)
	Update(ctx context.Context, entry *DayEntry) error
	Delete(ctx context.Context, userID, id int64) error
	ListByUser(ctx context.Context, userID int64, from, to string) ([]DayEntry, error)
	Summarize(ctx context.Context, userID int64, from, to string) (float64, []SummaryDay, error)
}

// entryRepository implements EntryRepository with MariaDB queries.
type entryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new day-entry repository.
func NewEntryRepository(db *sql.DB) EntryRepository {
	return &entryRepository{db: db}
}

// Create inserts a new entry and sets the auto-generated ID. A duplicate
// (user, date, start) tuple is translated to a conflict.
func (r *entryRepository) Create(ctx context.Context, entry *DayEntry) error {
	query := `INSERT INTO days (user_id, date, time_start, time_end, hours, location)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		entry.UserID, entry.Date, entry.TimeStart, entry.TimeEnd, entry.Hours, entry.Location,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("day entry already exists for this date and start time")
		}
		return fmt.Errorf("inserting day entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	entry.ID = id

	return r.reload(ctx, entry)
}

// FindOwnedByID retrieves an entry owned by the given user. A row that does
// not exist and a row owned by someone else are indistinguishable: both are
// apperror.NotFound.
func (r *entryRepository) FindOwnedByID(ctx context.Context, userID, id int64) (*DayEntry, error) {
	query := `SELECT id, user_id, date, time_start, time_end, hours, location, created_at, updated_at
	          FROM days WHERE id = ? AND user_id = ?`

	entry := &DayEntry{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&entry.ID, &entry.UserID, &entry.Date, &entry.TimeStart, &entry.TimeEnd,
		&entry.Hours, &entry.Location, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("day entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying day entry: %w", err)
	}

	entry.derive()
	return entry, nil
}

// Update replaces all mutable columns of an owned entry. The WHERE clause
// keeps the write ownership-scoped even though the service has already
// verified ownership; a duplicate (user, date, start) becomes a conflict.
// RowsAffected is not used for existence here because MariaDB reports zero
// affected rows for a no-change update.
func (r *entryRepository) Update(ctx context.Context, entry *DayEntry) error {
	query := `UPDATE days SET date = ?, time_start = ?, time_end = ?, hours = ?, location = ?
	          WHERE id = ? AND user_id = ?`

	_, err := r.db.ExecContext(ctx, query,
		entry.Date, entry.TimeStart, entry.TimeEnd, entry.Hours, entry.Location,
		entry.ID, entry.UserID,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("day entry already exists for this date and start time")
		}
		return fmt.Errorf("updating day entry: %w", err)
	}

	return r.reload(ctx, entry)
}

// Delete removes an owned entry. Missing or foreign rows are NotFound.
func (r *entryRepository) Delete(ctx context.Context, userID, id int64) error {
	query := `DELETE FROM days WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("deleting day entry: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("day entry not found")
	}

	return nil
}

// ListByUser returns the user's entries, optionally bounded by inclusive
// from/to dates, most recent first (date, then start time, descending).
// Empty bound strings mean unbounded.
func (r *entryRepository) ListByUser(ctx context.Context, userID int64, from, to string) ([]DayEntry, error) {
	query, args := scopedQuery(
		`SELECT id, user_id, date, time_start, time_end, hours, location, created_at, updated_at FROM days`,
		userID, from, to,
	)
	query += ` ORDER BY date DESC, time_start DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing day entries: %w", err)
	}
	defer rows.Close()

	entries := []DayEntry{}
	for rows.Next() {
		var e DayEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Date, &e.TimeStart, &e.TimeEnd,
			&e.Hours, &e.Location, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning day entry: %w", err)
		}
		e.derive()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Summarize computes the total hours and the per-date breakdown for the
// user's entries in the optional range. COALESCE keeps the total at zero
// when nothing matches.
func (r *entryRepository) Summarize(ctx context.Context, userID int64, from, to string) (float64, []SummaryDay, error) {
	totalQuery, args := scopedQuery(`SELECT COALESCE(SUM(hours), 0) FROM days`, userID, from, to)

	var total float64
	if err := r.db.QueryRowContext(ctx, totalQuery, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("summing hours: %w", err)
	}

	perDayQuery, args := scopedQuery(
		`SELECT date, SUM(hours), COUNT(*) FROM days`,
		userID, from, to,
	)
	perDayQuery += ` GROUP BY date ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, perDayQuery, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("aggregating per day: %w", err)
	}
	defer rows.Close()

	perDay := []SummaryDay{}
	for rows.Next() {
		var d SummaryDay
		if err := rows.Scan(&d.Date, &d.TotalHours, &d.Entries); err != nil {
			return 0, nil, fmt.Errorf("scanning summary row: %w", err)
		}
		perDay = append(perDay, d)
	}

	return total, perDay, rows.Err()
}

// reload re-reads the row after a write so timestamps and normalized column
// values come back from the database, not from the input.
func (r *entryRepository) reload(ctx context.Context, entry *DayEntry) error {
	fresh, err := r.FindOwnedByID(ctx, entry.UserID, entry.ID)
	if err != nil {
		return fmt.Errorf("reloading day entry: %w", err)
	}
	*entry = *fresh
	return nil
}

// scopedQuery appends the user scope and optional inclusive date bounds to
// a base SELECT, returning the query and its ordered arguments. Dates sort
// lexicographically in YYYY-MM-DD, so plain comparisons are chronological.
func scopedQuery(base string, userID int64, from, to string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(` WHERE user_id = ?`)
	args := []any{userID}

	if from != "" {
		sb.WriteString(` AND date >= ?`)
		args = append(args, from)
	}
	if to != "" {
		sb.WriteString(` AND date <= ?`)
		args = append(args, to)
	}

	return sb.String(), args
}

// isDuplicateEntry checks if a MySQL/MariaDB error is a duplicate key
// violation on the (user_id, date, time_start) unique key. Error code 1062
// (ER_DUP_ENTRY) produces a "Duplicate entry '...' for key '...'" message
// including the key name.
func isDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") && strings.Contains(msg, uniqueKeyName)
}
