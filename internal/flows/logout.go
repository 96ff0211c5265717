package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

type LogoutSessionStore interface {
	Delete(ctx context.Context, keys ...string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Key          KeyFunc
	StoreTimeout time.Duration
	SessionStore LogoutSessionStore
}

// RunLogout deletes the session records of the given kinds for subject with a
// single store call. Deleting absent records is not an error.
func RunLogout(ctx context.Context, subject string, kinds []jwt.Kind, deps LogoutDeps) error {
	if len(kinds) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, deps.Key(kind, subject))
	}

	ctx, cancel := withStoreTimeout(ctx, deps.StoreTimeout)
	defer cancel()
	return deps.SessionStore.Delete(ctx, keys...)
}
