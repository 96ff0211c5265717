// Package middleware exposes the HTTP authorization gate built on top of
// goSession.Engine validation.
//
// # Guard
//
// [Guard] reads the Authorization header, calls Engine.ValidateAccess, and injects
// the resulting [goSession.AuthResult] into the request context. Handlers read it
// back with [AuthResultFromContext].
//
// Every denial is answered with the same 401 body, {"error":"unauthorized"}. The
// classified reason (missing_token, malformed, signature_invalid, expired, revoked,
// store_unavailable) goes to the [WithOnDeny] hook and the debug log only.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Tell the client which check failed.
package middleware
