package goSession

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/rs/zerolog"
)

// UserRecord is a stored account as returned by a [CredentialStore].
type UserRecord struct {
	UserID       string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUserInput is the account a [CredentialStore] persists on registration.
// Email is already normalized and PasswordHash already computed.
type CreateUserInput struct {
	Name         string
	Email        string
	PasswordHash string
}

// RegisterRequest is the caller-supplied registration payload.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Profile is the public view of an account. It never carries the password hash.
type Profile struct {
	UserID    string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResult is returned by [Engine.Login] and [Engine.IssueSession].
// RefreshToken is empty in single-token mode.
type LoginResult struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by [Engine.ValidateAccess] and attached to requests by
// the middleware guard.
type AuthResult struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenKind re-exports the codec token kinds.
type TokenKind = jwt.Kind

const (
	KindAccess  = jwt.KindAccess
	KindRefresh = jwt.KindRefresh
)

// LogoutScope selects which session records Logout deletes.
type LogoutScope string

const (
	LogoutAccess  LogoutScope = "access"
	LogoutRefresh LogoutScope = "refresh"
	LogoutAll     LogoutScope = "all"
)

// SessionState is the liveness of one session slot.
type SessionState struct {
	Kind   TokenKind     `json:"kind"`
	Active bool          `json:"active"`
	TTL    time.Duration `json:"ttl"`
}

// SessionInfo is returned by [Engine.SessionInfo].
type SessionInfo struct {
	UserID string
	Slots  []SessionState
}

// HealthStatus is returned by [Engine.Health].
type HealthStatus struct {
	Redis         bool
	RedisLatency  time.Duration
	Database      bool
	DatabaseError string
	CheckedAt     time.Time
}

// Healthy reports whether every dependency is reachable.
func (h HealthStatus) Healthy() bool {
	return h.Redis && h.Database
}

// CredentialStore persists accounts. Implementations return [ErrUserNotFound]
// for unknown users and [ErrAccountExists] for duplicate emails.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	FindByID(ctx context.Context, id string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// CredentialPinger is optionally implemented by a [CredentialStore] that can
// report its own availability to [Engine.Health].
type CredentialPinger interface {
	Ping(ctx context.Context) error
}

// PasswordHasher hashes and verifies passwords. Verify returns (false, nil) on mismatch.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// SessionStore is the key-value store holding session records. Implementations
// return session.ErrNotFound for absent keys and wrap I/O failures in
// session.ErrRedisUnavailable.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// AuditEvent is one security event delivered to an [AuditSink].
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the Engine's background dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink discards audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel, mostly for tests.
type ChannelSink = internalaudit.ChannelSink

// LogSink writes audit events through zerolog.
type LogSink = internalaudit.LogSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewLogSink returns a [LogSink] writing to logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return internalaudit.NewLogSink(logger)
}
