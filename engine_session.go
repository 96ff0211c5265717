package goSession

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"go.opentelemetry.io/otel/attribute"
)

// IssueSession mints tokens for userID and overwrites its session records. Any
// previously issued token of the same kind stops validating. RefreshToken is
// empty in single-token mode.
func (e *Engine) IssueSession(ctx context.Context, userID string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ctx, span := e.startSpan(ctx, "IssueSession", attribute.String("gosession.user_id", userID))
	result, err := e.issueSession(ctx, userID)
	endSpan(span, err)
	return result, err
}

func (e *Engine) issueSession(ctx context.Context, userID string) (*LoginResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMalformed
	}

	issued := e.flow.Issue(ctx, userID)
	if err := e.mapIssueFailure("issue", issued); err != nil {
		return nil, err
	}
	e.metricInc(MetricSessionCreated)

	return &LoginResult{
		UserID:       userID,
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
	}, nil
}

func (e *Engine) mapIssueFailure(op string, issued flows.IssueResult) error {
	switch issued.Failure {
	case flows.IssueFailureNone:
		return nil
	case flows.IssueFailureStore:
		return e.storeUnavailable(op, issued.Err)
	default:
		e.logger.Error().Err(issued.Err).Str("op", op).Msg("token signing failed")
		return issued.Err
	}
}

// Validate checks token for kind and returns its subject. A token is accepted only
// when the codec verifies it AND the session record for (kind, subject) holds
// exactly this token. Codec errors are returned unwrapped.
func (e *Engine) Validate(ctx context.Context, token string, kind TokenKind) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	ctx, span := e.startSpan(ctx, "Validate", attribute.String("gosession.kind", string(kind)))
	claims, err := e.validate(ctx, token, kind)
	endSpan(span, err)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ValidateAccess validates an access token and returns the resolved identity.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ctx, span := e.startSpan(ctx, "ValidateAccess")

	start := time.Now()
	claims, err := e.validate(ctx, token, jwt.KindAccess)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	return authResultFromClaims(claims), nil
}

func (e *Engine) validate(ctx context.Context, token string, kind jwt.Kind) (*jwt.Claims, error) {
	res := e.flow.Validate(ctx, token, kind)
	switch res.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateSuccess)
		return res.Claims, nil
	case flows.ValidateFailureToken:
		e.metricInc(MetricValidateFailure)
		e.logger.Debug().Str("kind", string(kind)).Str("reason", DenyReason(res.Err)).Msg("token rejected")
		return nil, res.Err
	case flows.ValidateFailureRevoked:
		e.metricInc(MetricValidateFailure)
		e.metricInc(MetricSessionRevoked)
		e.logger.Debug().Str("kind", string(kind)).Str("user_id", res.Claims.Subject).Str("reason", "revoked").Msg("token rejected")
		return nil, ErrSessionRevoked
	default:
		e.metricInc(MetricValidateFailure)
		return nil, e.storeUnavailable("validate", res.Err)
	}
}

func authResultFromClaims(claims *jwt.Claims) *AuthResult {
	result := &AuthResult{
		UserID:  claims.Subject,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result
}

// Refresh exchanges a live refresh token for a new access token. Only the access
// record is overwritten; the refresh record keeps its value and remaining TTL.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	ctx, span := e.startSpan(ctx, "Refresh")
	access, err := e.refresh(ctx, refreshToken)
	endSpan(span, err)
	return access, err
}

func (e *Engine) refresh(ctx context.Context, refreshToken string) (string, error) {
	res := e.flow.Refresh(ctx, refreshToken)

	var err error
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.UserID, nil, nil)
		return res.AccessToken, nil
	case flows.RefreshFailureDisabled:
		err = ErrRefreshDisabled
	case flows.RefreshFailureToken:
		err = res.Err
	case flows.RefreshFailureRevoked:
		e.metricInc(MetricSessionRevoked)
		err = ErrSessionRevoked
	case flows.RefreshFailureStore:
		err = e.storeUnavailable("refresh", res.Err)
	default:
		e.logger.Error().Err(res.Err).Str("op", "refresh").Msg("token signing failed")
		err = res.Err
	}

	e.metricInc(MetricRefreshFailure)
	e.logger.Debug().Str("user_id", res.UserID).Str("reason", DenyReason(err)).Msg("refresh rejected")
	e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, err, nil)
	return "", err
}

func logoutKinds(scope LogoutScope) ([]jwt.Kind, bool) {
	switch scope {
	case LogoutAccess:
		return []jwt.Kind{jwt.KindAccess}, true
	case LogoutRefresh:
		return []jwt.Kind{jwt.KindRefresh}, true
	case LogoutAll, "":
		return []jwt.Kind{jwt.KindAccess, jwt.KindRefresh}, true
	default:
		return nil, false
	}
}

// Logout deletes the session records selected by scope with one store call.
// Logging out an identity with no live session succeeds. An empty scope means
// [LogoutAll].
func (e *Engine) Logout(ctx context.Context, userID string, scope LogoutScope) error {
	if err := e.ready(); err != nil {
		return err
	}
	ctx, span := e.startSpan(ctx, "Logout",
		attribute.String("gosession.user_id", userID),
		attribute.String("gosession.scope", string(scope)),
	)

	err := e.logout(ctx, userID, scope)
	endSpan(span, err)
	return err
}

func (e *Engine) logout(ctx context.Context, userID string, scope LogoutScope) error {
	kinds, ok := logoutKinds(scope)
	if !ok {
		return ErrInvalidLogoutScope
	}
	if strings.TrimSpace(userID) == "" {
		return ErrMalformed
	}

	if err := e.flow.Logout(ctx, userID, kinds); err != nil {
		return e.storeUnavailable("logout", err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, nil, func() map[string]string {
		return map[string]string{"scope": string(scope)}
	})
	return nil
}

// SessionInfo reports, per token kind in use, whether userID has a live session
// record and its remaining TTL.
func (e *Engine) SessionInfo(ctx context.Context, userID string) (*SessionInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ctx, span := e.startSpan(ctx, "SessionInfo", attribute.String("gosession.user_id", userID))

	states, err := e.flow.SessionInfo(ctx, userID)
	if err != nil {
		err = e.storeUnavailable("session_info", err)
		endSpan(span, err)
		return nil, err
	}
	endSpan(span, nil)

	info := &SessionInfo{UserID: userID, Slots: make([]SessionState, len(states))}
	for i, st := range states {
		info.Slots[i] = SessionState{Kind: st.Kind, Active: st.Active, TTL: st.TTL}
	}
	return info, nil
}
