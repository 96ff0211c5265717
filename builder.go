package goSession

import (
	"context"
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrEthical07/goSession"

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessionStore   SessionStore
	credentials    CredentialStore
	hasher         PasswordHasher
	auditSink      AuditSink
	logger         zerolog.Logger
	tracerProvider trace.TracerProvider
	now            func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the session store and the login
// throttle. The Engine does not close it.
//
// go-redis ignores context deadlines unless ContextTimeoutEnabled is set, so
// Build rejects a *redis.Client or *redis.ClusterClient without it while
// Session.StoreTimeout is non-zero.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the Redis-backed session store. Login throttling
// still requires [Builder.WithRedis] unless it is disabled.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessionStore = store
	return b
}

// WithCredentialStore sets the account store. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithPasswordHasher overrides the Argon2id hasher built from Config.Password.
func (b *Builder) WithPasswordHasher(hasher PasswordHasher) *Builder {
	b.hasher = hasher
	return b
}

// WithAuditSink sets the audit destination. Only used when Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the Engine logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTracerProvider sets the provider for Engine spans. The default is the
// global otel provider.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithClock injects the time source used for token issue and verification.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}

	if b.redis != nil && cfg.Session.StoreTimeout > 0 && !contextTimeoutEnabled(b.redis) {
		return nil, errors.New("redis client must set ContextTimeoutEnabled for Session.StoreTimeout to apply")
	}

	// -------- SESSION STORE --------
	store := b.sessionStore
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		store = session.NewStore(b.redis)
	}

	var limiter *rate.Limiter
	if cfg.Security.EnableLoginThrottle {
		if b.redis == nil {
			return nil, errors.New("login throttling requires redis client")
		}
		limiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.Session.RedisPrefix,
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			LoginWindow:      cfg.Security.LoginCooldownDuration,
			StoreTimeout:     cfg.Session.StoreTimeout,
		})
	}

	// -------- PASSWORD HASHER --------
	hasher := b.hasher
	if hasher == nil {
		ph, err := password.NewArgon2(cfg.passwordConfig())
		if err != nil {
			return nil, err
		}
		hasher = ph
	}

	// -------- TOKEN CODEC --------
	codecCfg := jwt.Config{
		Access: jwt.KeyConfig{
			Secret:     cloneBytes(cfg.JWT.AccessSecret),
			KeyID:      cfg.JWT.AccessKeyID,
			VerifyKeys: cloneKeys(cfg.JWT.AccessVerifyKeys),
		},
		Issuer:       cfg.JWT.Issuer,
		MaxFutureIAT: cfg.JWT.MaxFutureIAT,
		Now:          b.now,
	}
	if cfg.RefreshEnabled() {
		codecCfg.Refresh = jwt.KeyConfig{
			Secret:     cloneBytes(cfg.JWT.RefreshSecret),
			KeyID:      cfg.JWT.RefreshKeyID,
			VerifyKeys: cloneKeys(cfg.JWT.RefreshVerifyKeys),
		}
	}
	codec, err := jwt.NewCodec(codecCfg)
	if err != nil {
		return nil, err
	}

	tp := b.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:       cfg,
		codec:        codec,
		sessionStore: store,
		credentials:  b.credentials,
		hasher:       hasher,
		rateLimiter:  limiter,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  b.logger.With().Str("component", "engine").Logger(),
		tracer:  tp.Tracer(tracerName),
		now:     now,
	}
	engine.flow = flows.New(engine.buildFlowDeps())

	b.built = true

	return engine, nil
}

// contextTimeoutEnabled reports whether client honours context deadlines.
// Client types it cannot inspect are trusted.
func contextTimeoutEnabled(client redis.UniversalClient) bool {
	switch c := client.(type) {
	case *redis.Client:
		return c.Options().ContextTimeoutEnabled
	case *redis.ClusterClient:
		return c.Options().ContextTimeoutEnabled
	default:
		return true
	}
}

func (e *Engine) sessionKey(kind jwt.Kind, subject string) string {
	return session.Key(e.config.Session.RedisPrefix, string(kind), subject)
}

func (e *Engine) buildFlowDeps() flows.Deps {
	cfg := e.config
	refreshTTL := time.Duration(0)
	kinds := []jwt.Kind{jwt.KindAccess}
	if cfg.RefreshEnabled() {
		refreshTTL = cfg.JWT.RefreshTTL
		kinds = append(kinds, jwt.KindRefresh)
	}

	issueDeps := flows.IssueDeps{
		Issue:        e.codec.Issue,
		Key:          e.sessionKey,
		AccessTTL:    cfg.JWT.AccessTTL,
		RefreshTTL:   refreshTTL,
		StoreTimeout: cfg.Session.StoreTimeout,
		SessionStore: e.sessionStore,
	}
	validateDeps := flows.ValidateDeps{
		Verify:       e.codec.Verify,
		Key:          e.sessionKey,
		StoreTimeout: cfg.Session.StoreTimeout,
		SessionStore: e.sessionStore,
		NotFound:     session.ErrNotFound,
	}

	loginDeps := flows.LoginDeps{
		RateLimited: rate.ErrRateLimited,
		FindByEmail: func(ctx context.Context, email string) (flows.LoginUserRecord, error) {
			user, err := e.credentials.FindByEmail(ctx, email)
			if err != nil {
				return flows.LoginUserRecord{}, err
			}
			return flows.LoginUserRecord{
				UserID:       user.UserID,
				Email:        user.Email,
				PasswordHash: user.PasswordHash,
			}, nil
		},
		UserNotFound:   ErrUserNotFound,
		VerifyPassword: e.hasher.Verify,
		IssueSession: func(ctx context.Context, subject string) flows.IssueResult {
			return flows.RunIssue(ctx, subject, issueDeps)
		},
		Warn: func(msg string, err error) {
			e.logger.Warn().Err(err).Msg(msg)
		},
	}
	if e.rateLimiter != nil {
		loginDeps.CheckLoginRate = e.rateLimiter.CheckLogin
		loginDeps.IncrementLoginRate = e.rateLimiter.IncrementLogin
		loginDeps.ResetLoginRate = e.rateLimiter.ResetLogin
	}

	introspection := flows.IntrospectionDeps{
		Key:          e.sessionKey,
		Kinds:        kinds,
		StoreTimeout: cfg.Session.StoreTimeout,
		TTL:          e.sessionStore.TTL,
		Ping:         e.sessionStore.Ping,
		NotFound:     session.ErrNotFound,
	}
	if inspector, ok := e.sessionStore.(sessionInspector); ok {
		introspection.Inspect = inspector.Inspect
	}

	refreshDeps := flows.RefreshDeps{
		Enabled:      cfg.RefreshEnabled(),
		Validate:     validateDeps,
		Issue:        e.codec.Issue,
		AccessTTL:    cfg.JWT.AccessTTL,
		SessionStore: e.sessionStore,
	}
	if guarded, ok := e.sessionStore.(guardedWriter); ok {
		refreshDeps.SetIfCurrent = guarded.SetIfCurrent
	}

	return flows.Deps{
		Issue:    issueDeps,
		Validate: validateDeps,
		Refresh:  refreshDeps,
		Logout: flows.LogoutDeps{
			Key:          e.sessionKey,
			StoreTimeout: cfg.Session.StoreTimeout,
			SessionStore: e.sessionStore,
		},
		Login: loginDeps,
		Register: flows.RegisterDeps{
			MinPasswordBytes: cfg.Password.MinPasswordBytes,
			HashPassword:     e.hasher.Hash,
			CreateUser: func(ctx context.Context, name, email, passwordHash string) (flows.RegisteredUser, error) {
				user, err := e.credentials.CreateUser(ctx, CreateUserInput{
					Name:         name,
					Email:        email,
					PasswordHash: passwordHash,
				})
				if err != nil {
					return flows.RegisteredUser{}, err
				}
				return flows.RegisteredUser{
					UserID:    user.UserID,
					Name:      user.Name,
					Email:     user.Email,
					CreatedAt: user.CreatedAt,
				}, nil
			},
			AccountExists: ErrAccountExists,
		},
		Introspection: introspection,
	}
}

// sessionInspector is implemented by *session.Store.
type sessionInspector interface {
	Inspect(ctx context.Context, keys ...string) ([]session.Record, error)
}

// guardedWriter is implemented by stores that can make the refresh access write
// conditional on the refresh record in one step.
type guardedWriter interface {
	SetIfCurrent(ctx context.Context, guardKey, guardValue, key, value string, ttl time.Duration) error
}
