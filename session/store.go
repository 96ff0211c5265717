package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis I/O failure, including context deadlines.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned when a session key does not exist.
var ErrNotFound = errors.New("session not found")

// ErrInvalidTTL is returned when a record is written without a positive expiry.
var ErrInvalidTTL = errors.New("session ttl must be positive")

// Store is a Redis-backed session record store. Every write carries a TTL and every
// operation is a single atomic Redis command. Keys are built by callers with [Key].
type Store struct {
	redis redis.UniversalClient
}

// NewStore creates a session [Store] backed by the given Redis client.
func NewStore(client redis.UniversalClient) *Store {
	return &Store{
		redis: client,
	}
}

// Get returns the value stored under key.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return value, nil
}

// SetWithTTL writes value under key, replacing any previous value and expiry.
//
//	Performance: 1 Redis SET PX.
func (s *Store) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// setIfCurrentScript writes KEYS[2] only while KEYS[1] holds ARGV[1].
var setIfCurrentScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// SetIfCurrent writes value under key only while guardKey still holds guardValue.
// It returns [ErrNotFound] when the guard record is gone or was replaced.
//
//	Performance: 1 Redis EVALSHA. Cluster clients use GET then SET because the
//	two keys hash to different slots.
func (s *Store) SetIfCurrent(ctx context.Context, guardKey, guardValue, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	if _, ok := s.redis.(*redis.ClusterClient); ok {
		current, err := s.Get(ctx, guardKey)
		if err != nil {
			return err
		}
		if current != guardValue {
			return ErrNotFound
		}
		return s.SetWithTTL(ctx, key, value, ttl)
	}

	written, err := setIfCurrentScript.Run(ctx, s.redis, []string{guardKey, key}, guardValue, value, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if written == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the given keys in one DEL. Missing keys are not an error.
//
//	Performance: 1 Redis DEL.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// TTL returns the remaining lifetime of key. A key without expiry reports zero.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.redis.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return normalizeTTL(ttl)
}

// Inspect reports the liveness and remaining TTL of each key.
//
//	Performance: 1 pipelined round-trip (PTTL per key).
func (s *Store) Inspect(ctx context.Context, keys ...string) ([]Record, error) {
	if len(keys) == 0 {
		return []Record{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.DurationCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.PTTL(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	records := make([]Record, 0, len(keys))
	for i, key := range keys {
		rec := Record{Key: key}
		ttl, err := normalizeTTL(cmds[i].Val())
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return nil, err
		default:
			rec.Active = true
			rec.TTL = ttl
		}
		records = append(records, rec)
	}
	return records, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// PTTL replies -2 for a missing key and -1 for a key without expiry; go-redis passes
// both through unscaled.
func normalizeTTL(ttl time.Duration) (time.Duration, error) {
	switch {
	case ttl == -2:
		return 0, ErrNotFound
	case ttl < 0:
		return 0, nil
	default:
		return ttl, nil
	}
}
