package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), ContextTimeoutEnabled: true})
	store := NewStore(rdb)
	return store, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestKeyLayout(t *testing.T) {
	if got := Key("", "access", "u-1"); got != "access:u-1" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("gs", "refresh", "u-1"); got != "gs:refresh:u-1" {
		t.Fatalf("unexpected prefixed key %q", got)
	}
}

func TestSetGetOverwrite(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	key := Key("", "access", "u-1")

	if err := store.SetWithTTL(ctx, key, "token-1", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetWithTTL(ctx, key, "token-2", 2*time.Minute); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "token-2" {
		t.Fatalf("expected last write to win, got %q", got)
	}
	if ttl := mr.TTL(key); ttl != 2*time.Minute {
		t.Fatalf("expected overwritten ttl 2m, got %v", ttl)
	}
}

func TestGetMissingAndExpired(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if _, err := store.Get(ctx, "access:nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.SetWithTTL(ctx, "access:u-1", "token", time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := store.Get(ctx, "access:u-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired key to be absent, got %v", err)
	}
}

func TestSetRejectsNonPositiveTTL(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()

	if err := store.SetWithTTL(context.Background(), "access:u-1", "token", 0); !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidTTL, got %v", err)
	}
}

func TestDeleteIdempotentMultiKey(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, key := range []string{"access:u-1", "refresh:u-1"} {
		if err := store.SetWithTTL(ctx, key, "v", time.Minute); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	if err := store.Delete(ctx, "access:u-1", "refresh:u-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "access:u-1", "refresh:u-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if mr.Exists("access:u-1") || mr.Exists("refresh:u-1") {
		t.Fatal("expected keys to be deleted")
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("empty delete: %v", err)
	}
}

func TestTTLAndInspect(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.SetWithTTL(ctx, Key("gs", "refresh", "u-1"), "r", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	ttl, err := store.TTL(ctx, Key("gs", "refresh", "u-1"))
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
	if _, err := store.TTL(ctx, Key("gs", "access", "u-1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	records, err := store.Inspect(ctx, Key("gs", "access", "u-1"), Key("gs", "refresh", "u-1"))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Active || records[0].Key != "gs:access:u-1" {
		t.Fatalf("unexpected access record %+v", records[0])
	}
	if !records[1].Active || records[1].TTL != time.Hour {
		t.Fatalf("unexpected refresh record %+v", records[1])
	}
}

func TestRedisOutageWrapsUnavailable(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	mr.Close()

	if _, err := store.Get(ctx, "access:u-1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("get: expected ErrRedisUnavailable, got %v", err)
	}
	if err := store.SetWithTTL(ctx, "access:u-1", "v", time.Minute); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("set: expected ErrRedisUnavailable, got %v", err)
	}
	if err := store.Delete(ctx, "access:u-1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("delete: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Inspect(ctx, "access:u-1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("inspect: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("ping: expected ErrRedisUnavailable, got %v", err)
	}
}

func TestContextDeadlineWrapsUnavailable(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Get(ctx, "access:u-1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected cancelled context to surface as unavailable, got %v", err)
	}
}

func TestSetIfCurrentRequiresGuard(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.SetIfCurrent(ctx, "refresh:u-1", "r1", "access:u-1", "a1", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound without guard, got %v", err)
	}
	if mr.Exists("access:u-1") {
		t.Fatal("access record must not be written without guard")
	}

	if err := store.SetWithTTL(ctx, "refresh:u-1", "r1", time.Hour); err != nil {
		t.Fatalf("seed guard: %v", err)
	}
	if err := store.SetIfCurrent(ctx, "refresh:u-1", "r1", "access:u-1", "a1", time.Minute); err != nil {
		t.Fatalf("guarded set: %v", err)
	}
	if got, _ := mr.Get("access:u-1"); got != "a1" {
		t.Fatalf("expected a1, got %q", got)
	}
	if ttl := mr.TTL("access:u-1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}
	if ttl := mr.TTL("refresh:u-1"); ttl != time.Hour {
		t.Fatalf("guard ttl must be untouched, got %v", ttl)
	}

	if err := store.SetIfCurrent(ctx, "refresh:u-1", "r-old", "access:u-1", "a2", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on replaced guard, got %v", err)
	}
	if got, _ := mr.Get("access:u-1"); got != "a1" {
		t.Fatalf("access record must be unchanged, got %q", got)
	}

	if err := store.SetIfCurrent(ctx, "refresh:u-1", "r1", "access:u-1", "a3", 0); !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidTTL, got %v", err)
	}
}
