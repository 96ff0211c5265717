// Package session provides the Redis-backed session record store.
//
// A session record lives under the key "<kind>:<subject>" (optionally namespaced by a
// prefix, see [Key]) and holds the exact token string that is currently live for that slot. Record
// TTL equals the token validity window, so Redis eviction and token expiry coincide.
//
// # Architecture boundaries
//
// This package owns Redis I/O only. It does NOT parse tokens or decide whether a token is
// authoritative; the Engine compares the stored value with the presented token.
//
// # What this package must NOT do
//
//   - Import goSession or jwt (no upward imports).
//   - Retry failed Redis calls; retry policy belongs to callers.
//   - Treat Redis failures as absence: absence is [ErrNotFound], I/O failure is
//     [ErrRedisUnavailable].
package session
