// Package audit dispatches security events (logins, refreshes, logouts,
// registrations) asynchronously to a pluggable sink.
//
// # Components
//
//   - [Sink]: event consumer (channel, zerolog, no-op).
//   - [Dispatcher]: buffered relay with drop-if-full or block-if-full semantics.
//   - [Event]: one record with timestamp, type, user, IP and metadata.
//
// This package owns buffering and delivery. The Engine decides which events to emit.
// It must not import goSession or any sibling internal package.
package audit
