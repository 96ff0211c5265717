// Package goSession is a session-and-credential engine: it registers users, verifies
// passwords, issues signed bearer tokens, and binds every token to a revocable session
// record in Redis.
//
// Engine methods are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Acceptance rule
//
// A token is accepted only when both checks pass:
//
//  1. the token codec verifies its signature, kind and expiry, and
//  2. the session record for (kind, subject) holds exactly this token.
//
// Each (subject, kind) has one record, so a new login or refresh orphans the previous
// token and logout revokes it before it expires. There is no revocation list.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config], the
// collaborator interfaces ([CredentialStore], [SessionStore], [PasswordHasher]) and value
// types. Flow orchestration, login throttling and audit dispatch live under internal/.
//
// # Failure policy
//
// Session store failures, including timeouts, are reported as [ErrStoreUnavailable] and
// never as a validity error. Codec errors ([ErrMalformed], [ErrSignatureInvalid],
// [ErrExpired]) are returned unwrapped. Nothing is retried.
package goSession
