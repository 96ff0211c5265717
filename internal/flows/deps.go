package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Issue         IssueDeps
	Validate      ValidateDeps
	Refresh       RefreshDeps
	Logout        LogoutDeps
	Login         LoginDeps
	Register      RegisterDeps
	Introspection IntrospectionDeps
}

// SessionReader is the read side of the session store.
type SessionReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// SessionWriter is the write side of the session store.
type SessionWriter interface {
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// KeyFunc maps a (kind, subject) slot to its session key.
type KeyFunc func(kind jwt.Kind, subject string) string

// withStoreTimeout bounds a single store call. A zero timeout inherits ctx.
func withStoreTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
