package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/internal/flows"
	"go.opentelemetry.io/otel/attribute"
)

// Login verifies email and password and issues a session. Unknown email and wrong
// password both return [ErrInvalidCredentials]. With login throttling enabled,
// failures are counted per email and per client IP (see [WithClientIP]) and a
// successful login clears both counters.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ctx, span := e.startSpan(ctx, "Login")
	result, err := e.login(ctx, email, password)
	if result != nil {
		span.SetAttributes(attribute.String("gosession.user_id", result.UserID))
	}
	endSpan(span, err)
	return result, err
}

func (e *Engine) login(ctx context.Context, email, password string) (*LoginResult, error) {
	res := e.flow.Login(ctx, email, password, clientIPFromContext(ctx))

	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.metricInc(MetricSessionCreated)
		e.emitAudit(ctx, auditEventLoginSuccess, true, res.UserID, nil, nil)
		return &LoginResult{
			UserID:       res.UserID,
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
		}, nil

	case flows.LoginFailureRateLimited:
		e.metricInc(MetricLoginRateLimited)
		e.logger.Debug().Str("reason", "rate_limited").Msg("login rejected")
		e.emitAudit(ctx, auditEventLoginRateLimited, false, res.UserID, ErrLoginRateLimited, reasonMetadata(res.Reason))
		return nil, ErrLoginRateLimited

	case flows.LoginFailureRateUnavailable:
		e.metricInc(MetricLoginFailure)
		err := e.storeUnavailable("login_throttle", res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, nil)
		return nil, err

	case flows.LoginFailureUserNotFound, flows.LoginFailurePasswordMismatch:
		e.metricInc(MetricLoginFailure)
		e.logger.Debug().Str("reason", res.Reason).Msg("login rejected")
		e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, ErrInvalidCredentials, reasonMetadata(res.Reason))
		return nil, ErrInvalidCredentials

	case flows.LoginFailureLookup:
		e.metricInc(MetricLoginFailure)
		err := e.credentialUnavailable("login", res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, nil)
		return nil, err

	default:
		e.metricInc(MetricLoginFailure)
		err := e.mapIssueFailure("login", flows.IssueResult{Failure: res.IssueFailure, Err: res.Err})
		e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, err, reasonMetadata(res.Reason))
		return nil, err
	}
}

// Register validates req, hashes the password and creates the account. The email
// is trimmed and lowercased before it is stored.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*Profile, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ctx, span := e.startSpan(ctx, "Register")
	profile, err := e.register(ctx, req)
	endSpan(span, err)
	return profile, err
}

func (e *Engine) register(ctx context.Context, req RegisterRequest) (*Profile, error) {
	res := e.flow.Register(ctx, flows.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})

	var err error
	switch res.Failure {
	case flows.RegisterFailureNone:
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(ctx, auditEventRegisterSuccess, true, res.User.UserID, nil, nil)
		return &Profile{
			UserID:    res.User.UserID,
			Name:      res.User.Name,
			Email:     res.User.Email,
			CreatedAt: res.User.CreatedAt,
		}, nil
	case flows.RegisterFailureInvalid:
		e.metricInc(MetricRegisterInvalid)
		err = fmt.Errorf("%w: %s", ErrInvalidRegistration, res.Reason)
	case flows.RegisterFailureDuplicate:
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", ErrAccountExists, nil)
		return nil, ErrAccountExists
	case flows.RegisterFailureHash:
		e.logger.Error().Err(res.Err).Msg("password hashing failed")
		err = res.Err
	default:
		err = e.credentialUnavailable("register", res.Err)
	}

	e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, reasonMetadata(res.Reason))
	return nil, err
}

// Profile returns the stored account for userID without its password hash.
func (e *Engine) Profile(ctx context.Context, userID string) (*Profile, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ctx, span := e.startSpan(ctx, "Profile", attribute.String("gosession.user_id", userID))

	user, err := e.credentials.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			err = e.credentialUnavailable("profile", err)
		}
		endSpan(span, err)
		return nil, err
	}
	endSpan(span, nil)

	return &Profile{
		UserID:    user.UserID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// LoginAttempts reports the failed login count for email in the current throttle
// window. It is zero when throttling is disabled.
func (e *Engine) LoginAttempts(ctx context.Context, email string) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if e.rateLimiter == nil {
		return 0, nil
	}
	count, err := e.rateLimiter.LoginAttempts(ctx, flows.NormalizeEmail(email))
	if err != nil {
		return 0, e.storeUnavailable("login_attempts", err)
	}
	return count, nil
}
