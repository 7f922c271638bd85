// Package auth handles user accounts, password security, and session-based
// authentication for daybook. Sessions are opaque random tokens stored as
// rows in MariaDB with a fixed expiry; the token travels in the session_id
// cookie and is re-validated against the store on every request.
package auth

import (
	"time"
)

// User represents a registered daybook user. This is the domain model used
// throughout the application. Database scanning uses this struct directly.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is one server-side authentication session. The token (ID) is the
// only thing the client holds; everything else lives in the sessions table.
// A session is valid iff ExpiresAt is in the future. Expiry is fixed at
// issuance and never extended on access.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Identity is the minimal authenticated-user view attached to a request
// context. Downstream services receive only the ID; they never touch the
// credential store themselves.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// --- Request DTOs (bound from HTTP requests) ---

// CredentialsRequest holds the JSON body for both register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the input for creating a new user.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput is the input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}
