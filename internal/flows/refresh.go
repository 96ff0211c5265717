package flows

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureDisabled
	RefreshFailureToken
	RefreshFailureRevoked
	RefreshFailureStore
	RefreshFailureIssueAccess
)

// errRefreshSuperseded reports a refresh record replaced between validation and write.
var errRefreshSuperseded = errors.New("refresh record superseded")

// RefreshResult carries the new access token or failure metadata.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	UserID      string
	AccessToken string
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Enabled      bool
	Validate     ValidateDeps
	Issue        func(subject string, kind jwt.Kind, ttl time.Duration) (string, *jwt.Claims, error)
	AccessTTL    time.Duration
	SessionStore SessionWriter
	// SetIfCurrent writes key only while guardKey still holds guardValue and
	// returns Validate.NotFound otherwise. When nil the guard is re-read before
	// a plain write, which narrows the race with logout but does not close it.
	SetIfCurrent func(ctx context.Context, guardKey, guardValue, key, value string, ttl time.Duration) error
}

// RunRefresh validates a refresh token and mints a new access token, overwriting
// only the access record. The refresh record value and TTL are left untouched.
// The access write is conditional on the refresh record still holding
// refreshToken, so a refresh racing a logout cannot revive the access slot.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if !deps.Enabled {
		return RefreshResult{Failure: RefreshFailureDisabled}
	}

	validated := RunValidate(ctx, refreshToken, jwt.KindRefresh, deps.Validate)
	switch validated.Failure {
	case ValidateFailureNone:
	case ValidateFailureToken:
		return RefreshResult{Failure: RefreshFailureToken, Err: validated.Err}
	case ValidateFailureRevoked:
		return RefreshResult{Failure: RefreshFailureRevoked, Err: validated.Err, UserID: validated.Claims.Subject}
	default:
		return RefreshResult{Failure: RefreshFailureStore, Err: validated.Err, UserID: validated.Claims.Subject}
	}

	subject := validated.Claims.Subject
	access, _, err := deps.Issue(subject, jwt.KindAccess, deps.AccessTTL)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssueAccess, Err: err, UserID: subject}
	}

	storeCtx, cancel := withStoreTimeout(ctx, deps.Validate.StoreTimeout)
	defer cancel()

	refreshKey := deps.Validate.Key(jwt.KindRefresh, subject)
	accessKey := deps.Validate.Key(jwt.KindAccess, subject)
	if deps.SetIfCurrent != nil {
		err = deps.SetIfCurrent(storeCtx, refreshKey, refreshToken, accessKey, access, deps.AccessTTL)
	} else {
		err = recheckThenSet(storeCtx, deps, refreshKey, refreshToken, accessKey, access)
	}
	if err != nil {
		if errors.Is(err, errRefreshSuperseded) || (deps.Validate.NotFound != nil && errors.Is(err, deps.Validate.NotFound)) {
			return RefreshResult{Failure: RefreshFailureRevoked, Err: err, UserID: subject}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err, UserID: subject}
	}

	return RefreshResult{UserID: subject, AccessToken: access}
}

func recheckThenSet(ctx context.Context, deps RefreshDeps, guardKey, guardValue, key, value string) error {
	current, err := deps.Validate.SessionStore.Get(ctx, guardKey)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(guardValue)) != 1 {
		return errRefreshSuperseded
	}
	return deps.SessionStore.SetWithTTL(ctx, key, value, deps.AccessTTL)
}
