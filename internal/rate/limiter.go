package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds login throttling parameters.
type Config struct {
	Prefix           string
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginWindow      time.Duration
	// StoreTimeout bounds each Redis round-trip. Zero inherits the caller's context.
	StoreTimeout time.Duration
}

// incrementScript bumps a counter and arms its window in one atomic step. A key
// left without a TTL is re-armed so it can never pin an identifier forever.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Limiter counts failed logins per email and per client IP in fixed Redis windows.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin returns [ErrRateLimited] once the email or IP has used its failure
// budget for the current window.
//
//	Performance: 1 pipelined round-trip.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	keys := l.loginKeys(email, ip)

	pipe := l.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	for _, cmd := range cmds {
		count, err := cmd.Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// IncrementLogin records a failed login for the email and IP. It returns
// [ErrRateLimited] when the increment pushed a counter past the budget, which
// only happens when concurrent failures raced past CheckLogin.
func (l *Limiter) IncrementLogin(ctx context.Context, email, ip string) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	limited := false
	for _, key := range l.loginKeys(email, ip) {
		count, err := l.incrementWithTTL(ctx, key, l.config.LoginWindow)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLoginAttempts) {
			limited = true
		}
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the failure counters after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, email, ip string) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	if err := l.redis.Del(ctx, l.loginKeys(email, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// LoginAttempts returns the failure count recorded for email in the current window.
// Missing keys return zero and do not reveal account existence.
func (l *Limiter) LoginAttempts(ctx context.Context, email string) (int, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	count, err := l.redis.Get(ctx, l.key("email", email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) loginKeys(email, ip string) []string {
	keys := []string{l.key("email", email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, l.key("ip", ip))
	}
	return keys
}

func (l *Limiter) key(scope, value string) string {
	key := "rl:login:" + scope + ":" + strings.ToLower(strings.TrimSpace(value))
	if l.config.Prefix != "" {
		return l.config.Prefix + ":" + key
	}
	return key
}

func (l *Limiter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.config.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.config.StoreTimeout)
}

// incrementWithTTL starts the fixed window on the first failure.
func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := incrementScript.Run(ctx, l.redis, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}
