package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/daybook-app/daybook/internal/apperror"
)

// sessionTokenBytes is the number of random bytes in a session token.
// 16 bytes = 128 bits of entropy, hex-encoded to 32 characters. At that
// entropy budget a collision is overwhelmingly improbable, so tokens are
// inserted without an explicit uniqueness check.
const sessionTokenBytes = 16

// Password length bounds enforced at registration.
const (
	passwordMinLen = 6
	passwordMaxLen = 128
)

// emailRx is a deliberately loose shape check; real validation of an email
// address is delivery, which this app never attempts.
var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service defines the business logic contract for authentication.
// Handlers and the session middleware call these methods -- they never
// touch the repositories directly.
type Service interface {
	// Register creates an account and a fresh session (auto-login).
	Register(ctx context.Context, input RegisterInput) (*User, string, error)

	// Login verifies credentials and creates a fresh session.
	Login(ctx context.Context, input LoginInput) (*User, string, error)

	// Authenticate resolves a session token to a user identity. A missing,
	// expired, or orphaned session yields (nil, nil): anonymous is not an
	// error at this layer. Expired sessions are deleted as a side effect.
	Authenticate(ctx context.Context, token string) (*Identity, error)

	// Logout revokes a session token. Revoking an unknown token is a no-op.
	Logout(ctx context.Context, token string) error

	// EmailExists reports whether an account exists for the (normalized) email.
	EmailExists(ctx context.Context, email string) (bool, error)

	// SessionTTL exposes the configured session lifetime so the transport
	// layer can align the cookie max-age with the server-side expiry.
	SessionTTL() time.Duration
}

// service implements Service with argon2id hashing and DB-backed sessions.
type service struct {
	users      UserRepository
	sessions   SessionRepository
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService creates a new auth service with the given dependencies.
func NewService(users UserRepository, sessions SessionRepository, sessionTTL time.Duration) Service {
	return &service{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Register creates a new user account. It validates the input, checks email
// uniqueness, hashes the password with argon2id, persists the user, and
// issues a session so registration doubles as login.
func (s *service) Register(ctx context.Context, input RegisterInput) (*User, string, error) {
	email := normalizeEmail(input.Email)
	if !emailRx.MatchString(email) {
		return nil, "", apperror.NewValidation("invalid email address")
	}
	if len(input.Password) < passwordMinLen {
		return nil, "", apperror.NewValidation(fmt.Sprintf("password must be at least %d characters", passwordMinLen))
	}
	if len(input.Password) > passwordMaxLen {
		return nil, "", apperror.NewValidation(fmt.Sprintf("password must be at most %d characters", passwordMaxLen))
	}

	// Check if the email is already taken before doing expensive hashing.
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, "", apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, "", apperror.NewConflict("email already registered")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		// Hashing failures are fatal to the request, never retried.
		return nil, "", apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A register race loses here; the repository already translated
		// the duplicate-key error into a conflict.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, "", appErr
		}
		return nil, "", apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, "", apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// Login authenticates a user by email and password. On success it creates a
// new session and returns the session token for the cookie.
func (s *service) Login(ctx context.Context, input LoginInput) (*User, string, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, "", apperror.NewValidation("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// Don't reveal whether the email exists -- use a generic message.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil, "", apperror.NewUnauthorized("invalid email or password")
		}
		return nil, "", apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, "", apperror.NewUnauthorized("invalid email or password")
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, "", apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// Authenticate resolves a session token against the store. Expiry is checked
// on every call, never cached; the first access after expiry deletes the
// stale row. A live session pointing at a deleted user is a data-integrity
// anomaly: it is logged and treated as anonymous rather than failing the
// request.
func (s *service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.FindByID(ctx, token)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil, nil
		}
		return nil, apperror.NewInternal(fmt.Errorf("resolving session: %w", err))
	}

	if session.Expired(s.now()) {
		// Lazy cleanup: the expired row is removed on this access attempt.
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("deleting expired session: %w", err))
		}
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			slog.Warn("session references missing user",
				slog.String("session_id", session.ID),
				slog.Int64("user_id", session.UserID),
			)
			return nil, nil
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading session user: %w", err))
	}

	return &Identity{ID: user.ID, Email: user.Email}, nil
}

// Logout deletes the session row, revoking the token. Idempotent.
func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return apperror.NewInternal(fmt.Errorf("revoking session: %w", err))
	}
	return nil
}

// EmailExists normalizes the email and checks the store.
func (s *service) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.users.EmailExists(ctx, normalizeEmail(email))
	if err != nil {
		return false, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	return exists, nil
}

// SessionTTL returns the configured session lifetime.
func (s *service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// createSession generates a random token and persists the session with an
// absolute expiry of now + TTL.
func (s *service) createSession(ctx context.Context, userID int64) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		// Token-generation failures are fatal, never retried.
		return "", fmt.Errorf("generating session token: %w", err)
	}

	session := &Session{
		ID:        token,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	return token, nil
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// normalizeEmail lowercases and trims an email address. Applied uniformly
// at register, login, and check-email so lookups are case-insensitive
// everywhere, not just in one path.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
