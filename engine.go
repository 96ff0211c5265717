package goSession

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the session manager. It is safe for concurrent use; all mutable
// session state lives in the session store.
type Engine struct {
	config       Config
	codec        *jwt.Codec
	sessionStore SessionStore
	credentials  CredentialStore
	hasher       PasswordHasher
	rateLimiter  *rate.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
	flow         flows.Service
}

// Close flushes pending audit events. It does not close injected clients.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
		if panics := e.audit.SinkPanics(); panics > 0 {
			e.logger.Warn().Uint64("sink_panics", panics).Uint64("delivered", e.audit.Delivered()).Msg("audit sink panicked")
		}
	}
}

// AuditDropped reports how many audit events were discarded.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the Engine counters. It is empty when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the Engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || !e.flow.Initialized() {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "goSession."+name, trace.WithAttributes(attrs...))
}

// endSpan records err on span unless it is an expected denial.
func endSpan(span trace.Span, err error) {
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrCredentialStoreUnavailable) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if err != nil {
		span.SetAttributes(attribute.String("gosession.denied", DenyReason(err)))
	}
	span.End()
}

// storeUnavailable wraps a session store failure and logs it once.
func (e *Engine) storeUnavailable(op string, err error) error {
	e.metricInc(MetricStoreUnavailable)
	e.logger.Error().Err(err).Str("op", op).Msg("session store unavailable")
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (e *Engine) credentialUnavailable(op string, err error) error {
	e.logger.Error().Err(err).Str("op", op).Msg("credential store unavailable")
	return fmt.Errorf("%w: %v", ErrCredentialStoreUnavailable, err)
}

// DenyReason classifies an authorization error into the reason codes used in
// logs, audit events and middleware deny hooks.
func DenyReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrMalformed), errors.Is(err, jwt.ErrUnknownKind):
		return "malformed"
	case errors.Is(err, ErrSessionRevoked):
		return "revoked"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrLoginRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrRefreshDisabled):
		return "refresh_disabled"
	case errors.Is(err, ErrEngineNotReady):
		return "not_ready"
	default:
		return "internal"
	}
}

// Health pings the session store and, when it supports it, the credential store.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e.ready() != nil {
		return HealthStatus{CheckedAt: time.Now().UTC()}
	}
	status := HealthStatus{CheckedAt: e.now().UTC()}

	ctx, span := e.startSpan(ctx, "Health")
	defer span.End()

	status.Redis, status.RedisLatency = e.flow.Health(ctx)
	if !status.Redis {
		e.logger.Warn().Msg("health: session store ping failed")
	}

	status.Database = true
	if pinger, ok := e.credentials.(CredentialPinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			status.Database = false
			status.DatabaseError = err.Error()
			e.logger.Warn().Err(err).Msg("health: credential store ping failed")
		}
	}

	span.SetAttributes(
		attribute.Bool("gosession.redis", status.Redis),
		attribute.Bool("gosession.database", status.Database),
	)
	return status
}
