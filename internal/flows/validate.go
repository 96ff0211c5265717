package flows

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	// ValidateFailureToken means the codec rejected the token; Err is the codec error.
	ValidateFailureToken
	// ValidateFailureRevoked means the session record is absent or holds another token.
	ValidateFailureRevoked
	// ValidateFailureStore means the session store could not be read.
	ValidateFailureStore
)

// ValidateResult returns either the verified claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

// ValidateDeps captures token validation dependencies.
type ValidateDeps struct {
	Verify       func(token string, kind jwt.Kind) (*jwt.Claims, error)
	Key          KeyFunc
	StoreTimeout time.Duration
	SessionStore SessionReader
	// NotFound is the store's absence sentinel.
	NotFound error
}

// RunValidate accepts a token iff the codec verifies it for kind AND the session
// record for (kind, subject) holds exactly this token.
func RunValidate(ctx context.Context, token string, kind jwt.Kind, deps ValidateDeps) ValidateResult {
	claims, err := deps.Verify(token, kind)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureToken, Err: err}
	}

	storeCtx, cancel := withStoreTimeout(ctx, deps.StoreTimeout)
	defer cancel()

	stored, err := deps.SessionStore.Get(storeCtx, deps.Key(kind, claims.Subject))
	if err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return ValidateResult{Failure: ValidateFailureRevoked, Err: err, Claims: claims}
		}
		return ValidateResult{Failure: ValidateFailureStore, Err: err, Claims: claims}
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return ValidateResult{Failure: ValidateFailureRevoked, Claims: claims}
	}

	return ValidateResult{Claims: claims}
}
