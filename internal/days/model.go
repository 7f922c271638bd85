// Package days implements day entries: per-user blocks of tracked work time
// on a calendar date, with server-derived durations, a uniqueness rule on
// (user, date, start), and range summaries. Every operation is scoped to a
// single resolved user id; this package never touches the credential store.
package days

import (
	"time"
)

// DayEntry is one contiguous or open-ended block of tracked time for a user
// on a calendar date. Hours is always derived server-side from the time
// range; client-supplied values are ignored. Open is computed, not stored:
// an entry with no end time is still in progress.
type DayEntry struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`      // YYYY-MM-DD
	TimeStart string    `json:"timeStart"` // HH:MM
	TimeEnd   *string   `json:"timeEnd"`   // nil until closed
	Hours     float64   `json:"hours"`
	Location  *string   `json:"location"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Open      bool      `json:"open"`
}

// derive fills the computed fields after a scan or a write.
func (e *DayEntry) derive() {
	e.Open = e.TimeEnd == nil
}

// EntryInput is the full-replacement input for create and update. There is
// no partial patch: all fields are re-supplied and re-validated every time.
type EntryInput struct {
	Date      string  `json:"date"`
	TimeStart string  `json:"timeStart"`
	TimeEnd   string  `json:"timeEnd"`  // empty string means open entry
	Location  *string `json:"location"` // optional free text
}

// CloseRequest is the body for the close convenience operation. An empty
// TimeEnd closes the entry at the current wall-clock time.
type CloseRequest struct {
	TimeEnd string `json:"timeEnd"`
}

// SummaryDay is the per-date aggregate inside a summary.
type SummaryDay struct {
	Date       string  `json:"date"`
	TotalHours float64 `json:"totalHours"`
	Entries    int     `json:"entries"`
}

// DaysSummary is the aggregate over a user's entries in an optional date
// range. Computed on demand, never persisted or cached server-side.
type DaysSummary struct {
	From       string       `json:"from,omitempty"`
	To         string       `json:"to,omitempty"`
	TotalHours float64      `json:"totalHours"`
	Days       []SummaryDay `json:"days"`
}
