package flows

import (
	"context"
	"errors"
)

// LoginUserRecord is the flow-local view of a stored account.
type LoginUserRecord struct {
	UserID       string
	Email        string
	PasswordHash string
}

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureRateUnavailable
	LoginFailureUserNotFound
	LoginFailurePasswordMismatch
	LoginFailureLookup
	LoginFailureIssue
)

// LoginResult carries the issued tokens or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	IssueFailure IssueFailureKind
	Err          error
	Reason       string
	UserID       string
	AccessToken  string
	RefreshToken string
}

// LoginDeps captures login dependencies. Rate limit hooks are optional.
type LoginDeps struct {
	CheckLoginRate     func(ctx context.Context, email, ip string) error
	IncrementLoginRate func(ctx context.Context, email, ip string) error
	ResetLoginRate     func(ctx context.Context, email, ip string) error
	RateLimited        error

	FindByEmail    func(ctx context.Context, email string) (LoginUserRecord, error)
	UserNotFound   error
	VerifyPassword func(plain, hash string) (bool, error)
	IssueSession   func(ctx context.Context, subject string) IssueResult

	Warn func(msg string, err error)
}

// RunLogin checks the throttle, verifies credentials and issues a session.
// Unknown email and wrong password are distinct kinds here; the Engine collapses
// them into one public error.
func RunLogin(ctx context.Context, email, password, ip string, deps LoginDeps) LoginResult {
	if deps.Warn == nil {
		deps.Warn = func(string, error) {}
	}
	email = NormalizeEmail(email)

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, email, ip); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return LoginResult{Failure: LoginFailureRateLimited, Err: err}
			}
			return LoginResult{Failure: LoginFailureRateUnavailable, Err: err}
		}
	}

	fail := func(kind LoginFailureKind, reason, userID string, cause error) LoginResult {
		if deps.IncrementLoginRate != nil {
			if err := deps.IncrementLoginRate(ctx, email, ip); err != nil {
				if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
					return LoginResult{Failure: LoginFailureRateLimited, Err: err, Reason: reason, UserID: userID}
				}
				deps.Warn("login failure counter update failed", err)
			}
		}
		return LoginResult{Failure: kind, Err: cause, Reason: reason, UserID: userID}
	}

	if email == "" || password == "" {
		return fail(LoginFailurePasswordMismatch, "empty_credentials", "", nil)
	}

	user, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
			return fail(LoginFailureUserNotFound, "user_not_found", "", err)
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err, Reason: "lookup_failed"}
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return fail(LoginFailurePasswordMismatch, "password_mismatch", user.UserID, err)
	}

	issued := deps.IssueSession(ctx, user.UserID)
	if issued.Failure != IssueFailureNone {
		return LoginResult{
			Failure:      LoginFailureIssue,
			IssueFailure: issued.Failure,
			Err:          issued.Err,
			Reason:       "issue_failed",
			UserID:       user.UserID,
		}
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, email, ip); err != nil {
			deps.Warn("login failure counter reset failed", err)
		}
	}

	return LoginResult{
		UserID:       user.UserID,
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
	}
}
