package goSession

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/password"
)

// Config holds every Engine setting. Build a value with [DefaultConfig], override
// fields, and hand it to [Builder.WithConfig]. The Builder validates and copies it,
// so later mutation has no effect on a built Engine.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures token signing. RefreshTTL == 0 selects single-token mode,
// in which RefreshSecret may be empty.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string

	// Optional key rotation. KeyID is stamped into the kid header; VerifyKeys
	// holds retired secrets that still verify.
	AccessKeyID       string
	RefreshKeyID      string
	AccessVerifyKeys  map[string][]byte
	RefreshVerifyKeys map[string][]byte

	// MaxFutureIAT bounds how far in the future an iat claim may be.
	MaxFutureIAT time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures session record storage.
type SessionConfig struct {
	// RedisPrefix namespaces session and rate-limit keys. Empty keeps the bare
	// access:<id> / refresh:<id> layout.
	RedisPrefix string
	// StoreTimeout bounds every session store call. Zero inherits the caller's context.
	StoreTimeout time.Duration
}

// PasswordConfig holds the Argon2id parameters used by the default hasher.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MinPasswordBytes int
	MaxPasswordBytes int
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig configures login throttling.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the validate latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the service defaults: 15m access tokens, 7d refresh tokens,
// 10 failed logins per 15 minutes. Secrets are left empty and must be supplied.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:    15 * time.Minute,
			RefreshTTL:   7 * 24 * time.Hour,
			MaxFutureIAT: 10 * time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix:  "",
			StoreTimeout: 2 * time.Second,
		},
		Password: PasswordConfig{
			Memory:           pw.Memory,
			Time:             pw.Time,
			Parallelism:      pw.Parallelism,
			SaltLength:       pw.SaltLength,
			KeyLength:        pw.KeyLength,
			MinPasswordBytes: pw.MinPasswordBytes,
			MaxPasswordBytes: pw.MaxPasswordBytes,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			EnableIPThrottle:      true,
			MaxLoginAttempts:      10,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	out.JWT.AccessVerifyKeys = cloneKeys(cfg.JWT.AccessVerifyKeys)
	out.JWT.RefreshVerifyKeys = cloneKeys(cfg.JWT.RefreshVerifyKeys)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneKeys(keys map[string][]byte) map[string][]byte {
	if keys == nil {
		return nil
	}
	out := make(map[string][]byte, len(keys))
	for kid, secret := range keys {
		out[kid] = cloneBytes(secret)
	}
	return out
}

// RefreshEnabled reports whether the config runs in dual-token mode.
func (c *Config) RefreshEnabled() bool {
	return c.JWT.RefreshTTL > 0
}

func (c *Config) passwordConfig() password.Config {
	return password.Config{
		Memory:           c.Password.Memory,
		Time:             c.Password.Time,
		Parallelism:      c.Password.Parallelism,
		SaltLength:       c.Password.SaltLength,
		KeyLength:        c.Password.KeyLength,
		MinPasswordBytes: c.Password.MinPasswordBytes,
		MaxPasswordBytes: c.Password.MaxPasswordBytes,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the Engine cannot run with.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL < 0 {
		return errors.New("JWT RefreshTTL must be >= 0")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return errors.New("JWT AccessSecret must be at least 32 bytes")
	}
	if c.RefreshEnabled() {
		if len(c.JWT.RefreshSecret) < 32 {
			return errors.New("JWT RefreshSecret must be at least 32 bytes when refresh is enabled")
		}
		if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
			return errors.New("JWT AccessSecret and RefreshSecret must differ")
		}
	}
	if c.JWT.MaxFutureIAT < 0 || c.JWT.MaxFutureIAT > 24*time.Hour {
		return errors.New("JWT MaxFutureIAT must be between 0 and 24h")
	}

	// Session
	if c.Session.StoreTimeout < 0 {
		return errors.New("Session StoreTimeout must be >= 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinPasswordBytes < 1 {
		return errors.New("Password MinPasswordBytes must be >= 1")
	}
	if c.Password.MaxPasswordBytes != 0 && c.Password.MaxPasswordBytes < c.Password.MinPasswordBytes {
		return fmt.Errorf("Password MaxPasswordBytes must be >= MinPasswordBytes (%d)", c.Password.MinPasswordBytes)
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("LoginCooldownDuration must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

/*
====================================
LINT
====================================
*/

// LintSeverity ranks a [LintWarning].
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "info"
	case LintWarn:
		return "warn"
	case LintHigh:
		return "high"
	default:
		return "unknown"
	}
}

// LintWarning is a valid but questionable setting.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	codes := make([]string, len(ws))
	for i, w := range ws {
		codes[i] = w.Code
	}
	return codes
}

// AtLeast filters warnings at or above min severity.
func (ws LintWarnings) AtLeast(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint reports settings that pass [Config.Validate] but weaken the service. It
// never fails; cmd/sessiond logs the result at startup.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.JWT.AccessTTL > time.Hour {
		add("access_ttl_long", LintWarn, "AccessTTL above 1h widens the window of a stolen access token")
	}
	if c.JWT.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "RefreshTTL above 30d keeps sessions alive for a long time")
	}
	if c.RefreshEnabled() && c.JWT.RefreshTTL < c.JWT.AccessTTL {
		add("refresh_shorter_than_access", LintWarn, "RefreshTTL is shorter than AccessTTL, refresh is never useful")
	}
	if !c.RefreshEnabled() {
		add("single_token_mode", LintInfo, "RefreshTTL is 0, login issues access tokens only")
	}
	if c.JWT.MaxFutureIAT > time.Hour {
		add("future_iat_large", LintWarn, "MaxFutureIAT above 1h accepts tokens minted far in the future")
	}
	if c.Session.StoreTimeout == 0 {
		add("store_timeout_unbounded", LintHigh, "StoreTimeout is 0, store calls are bounded only by the caller's context")
	}
	if !c.Security.EnableLoginThrottle {
		add("login_throttle_disabled", LintHigh, "login throttling is disabled, passwords can be brute forced")
	} else if !c.Security.EnableIPThrottle {
		add("ip_throttle_disabled", LintInfo, "per-IP login throttling is disabled")
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		add("audit_drop_if_full", LintInfo, "audit events are dropped when the buffer is full")
	}

	return ws
}
