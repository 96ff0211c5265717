package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/jwt"
)

// Token errors are the codec's sentinels, so errors.Is matches either name.
var (
	// ErrMalformed is returned for tokens that cannot be decoded or carry invalid claims.
	ErrMalformed = jwt.ErrMalformed
	// ErrSignatureInvalid is returned for tampered tokens or tokens signed with another secret.
	ErrSignatureInvalid = jwt.ErrSignatureInvalid
	// ErrExpired is returned for correctly signed tokens past their expiry.
	ErrExpired = jwt.ErrExpired
)

var (
	// ErrSessionRevoked is returned when a valid token no longer matches its session record.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrStoreUnavailable wraps session store I/O failures, including timeouts.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned when the login failure budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshDisabled is returned by Refresh in single-token mode.
	ErrRefreshDisabled = errors.New("refresh disabled")
	// ErrAccountExists is returned when registering an email that is already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidRegistration is returned for missing fields, a malformed email or a short password.
	ErrInvalidRegistration = errors.New("invalid registration request")
	// ErrUserNotFound is returned by credential stores for unknown users.
	ErrUserNotFound = errors.New("user not found")
	// ErrCredentialStoreUnavailable wraps credential store failures other than not-found.
	ErrCredentialStoreUnavailable = errors.New("credential store unavailable")
	// ErrInvalidLogoutScope is returned for an unknown logout scope.
	ErrInvalidLogoutScope = errors.New("invalid logout scope")
	// ErrEngineNotReady is returned when an Engine was not built by a Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
)
