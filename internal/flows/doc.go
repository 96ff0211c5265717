// Package flows contains the orchestrators behind every Engine operation.
//
// Each flow function (RunIssue, RunValidate, RunRefresh, RunLogin, ...) accepts a
// typed dependency struct and returns a result carrying either the payload or a
// classified failure. The Engine maps failures to its public errors, metrics and
// audit events.
//
// # Architecture boundaries
//
// Flow functions coordinate the token codec, session store, credential store,
// password hasher and rate limiter. They do NOT own any of these resources.
// Ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
