package middleware

import (
	"context"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/rs/zerolog"
)

// ReasonMissingToken is reported when the request carries no usable bearer token.
const ReasonMissingToken = "missing_token"

const unauthorizedBody = `{"error":"unauthorized"}` + "\n"

type authResultContextKey struct{}

// AuthResultFromContext returns the identity attached by [Guard].
func AuthResultFromContext(ctx context.Context) (*goSession.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*goSession.AuthResult)
	return res, ok && res != nil
}

// WithAuthResult attaches res to ctx the way [Guard] does.
func WithAuthResult(ctx context.Context, res *goSession.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// DenyFunc observes a rejected request. reason is one of the goSession.DenyReason
// values or [ReasonMissingToken].
type DenyFunc func(r *http.Request, reason string, err error)

type options struct {
	onDeny DenyFunc
	logger zerolog.Logger
}

// Option configures [Guard].
type Option func(*options)

// WithOnDeny registers a hook called for every denied request.
func WithOnDeny(fn DenyFunc) Option {
	return func(o *options) {
		o.onDeny = fn
	}
}

// WithLogger sets the logger used for denial lines (debug level).
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Guard rejects requests without a live access token.
func Guard(engine *goSession.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With().Str("component", "guard").Logger()

	deny := func(w http.ResponseWriter, r *http.Request, reason string, err error) {
		logger.Debug().
			Str("reason", reason).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request denied")
		if o.onDeny != nil {
			o.onDeny(r, reason, err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(unauthorizedBody))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				deny(w, r, ReasonMissingToken, nil)
				return
			}

			res, err := engine.ValidateAccess(r.Context(), token)
			if err != nil {
				deny(w, r, goSession.DenyReason(err), err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
