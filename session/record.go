package session

import "time"

// Record describes one session key as observed in Redis.
type Record struct {
	Key    string
	Active bool
	TTL    time.Duration
}

// Key returns the session key for a (kind, subject) slot: "<kind>:<subject>", or
// "<prefix>:<kind>:<subject>" when prefix is set.
func Key(prefix, kind, subject string) string {
	if prefix == "" {
		return kind + ":" + subject
	}
	return prefix + ":" + kind + ":" + subject
}
