package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// SessionState is the liveness of one (kind, subject) slot.
type SessionState struct {
	Kind   jwt.Kind
	Active bool
	TTL    time.Duration
}

// IntrospectionDeps captures session introspection and health dependencies.
// Inspect is optional; without it each slot costs one TTL call.
type IntrospectionDeps struct {
	Key          KeyFunc
	Kinds        []jwt.Kind
	StoreTimeout time.Duration
	Inspect      func(ctx context.Context, keys ...string) ([]session.Record, error)
	TTL          func(ctx context.Context, key string) (time.Duration, error)
	Ping         func(ctx context.Context) (time.Duration, error)
	NotFound     error
}

// RunSessionInfo reports per-kind liveness and remaining TTL for subject.
func RunSessionInfo(ctx context.Context, subject string, deps IntrospectionDeps) ([]SessionState, error) {
	keys := make([]string, len(deps.Kinds))
	for i, kind := range deps.Kinds {
		keys[i] = deps.Key(kind, subject)
	}

	ctx, cancel := withStoreTimeout(ctx, deps.StoreTimeout)
	defer cancel()

	states := make([]SessionState, len(deps.Kinds))
	if deps.Inspect != nil {
		records, err := deps.Inspect(ctx, keys...)
		if err != nil {
			return nil, err
		}
		for i, rec := range records {
			states[i] = SessionState{Kind: deps.Kinds[i], Active: rec.Active, TTL: rec.TTL}
		}
		return states, nil
	}

	for i, key := range keys {
		states[i].Kind = deps.Kinds[i]
		ttl, err := deps.TTL(ctx, key)
		if err != nil {
			if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
				continue
			}
			return nil, err
		}
		states[i].Active = true
		states[i].TTL = ttl
	}
	return states, nil
}

// RunHealth pings the session store.
func RunHealth(ctx context.Context, deps IntrospectionDeps) (bool, time.Duration) {
	if deps.Ping == nil {
		return false, 0
	}
	ctx, cancel := withStoreTimeout(ctx, deps.StoreTimeout)
	defer cancel()

	latency, err := deps.Ping(ctx)
	return err == nil, latency
}
