// Package config loads sessiond settings from SESSIOND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/caarlos0/env/v11"
)

// Config is the process configuration for cmd/sessiond.
type Config struct {
	Addr            string        `env:"SESSIOND_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SESSIOND_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	RedisURL string `env:"SESSIOND_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DBPath   string `env:"SESSIOND_DB_PATH"   envDefault:"sessiond.db"`

	JWTSecret        string        `env:"SESSIOND_JWT_SECRET,unset"`
	JWTRefreshSecret string        `env:"SESSIOND_JWT_REFRESH_SECRET,unset"`
	JWTIssuer        string        `env:"SESSIOND_JWT_ISSUER"        envDefault:"sessiond"`
	AccessTTL        time.Duration `env:"SESSIOND_ACCESS_TTL"        envDefault:"15m"`
	RefreshTTL       time.Duration `env:"SESSIOND_REFRESH_TTL"       envDefault:"168h"`
	SessionPrefix    string        `env:"SESSIOND_SESSION_PREFIX"`
	StoreTimeout     time.Duration `env:"SESSIOND_STORE_TIMEOUT"     envDefault:"2s"`

	LoginMaxAttempts int           `env:"SESSIOND_LOGIN_MAX_ATTEMPTS" envDefault:"10"`
	LoginWindow      time.Duration `env:"SESSIOND_LOGIN_WINDOW"       envDefault:"15m"`
	IPThrottle       bool          `env:"SESSIOND_IP_THROTTLE"        envDefault:"true"`

	AuditLog bool `env:"SESSIOND_AUDIT_LOG" envDefault:"true"`
	Metrics  bool `env:"SESSIOND_METRICS"   envDefault:"true"`

	OTelEndpoint string `env:"SESSIOND_OTEL_ENDPOINT"`
	OTelInsecure bool   `env:"SESSIOND_OTEL_INSECURE" envDefault:"false"`

	LogLevel  string `env:"SESSIOND_LOG_LEVEL"  envDefault:"info"`
	LogPretty bool   `env:"SESSIOND_LOG_PRETTY" envDefault:"false"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("SESSIOND_JWT_SECRET is required")
	}
	if cfg.RefreshTTL > 0 && cfg.JWTRefreshSecret == "" {
		return Config{}, errors.New("SESSIOND_JWT_REFRESH_SECRET is required unless SESSIOND_REFRESH_TTL is 0")
	}
	return cfg, nil
}

// ToEngineConfig maps the service settings onto goSession.Config and validates the result.
func (c Config) ToEngineConfig() (goSession.Config, error) {
	cfg := goSession.DefaultConfig()

	cfg.JWT.AccessSecret = []byte(c.JWTSecret)
	if c.JWTRefreshSecret != "" {
		cfg.JWT.RefreshSecret = []byte(c.JWTRefreshSecret)
	}
	cfg.JWT.Issuer = c.JWTIssuer
	cfg.JWT.AccessTTL = c.AccessTTL
	cfg.JWT.RefreshTTL = c.RefreshTTL

	cfg.Session.RedisPrefix = c.SessionPrefix
	cfg.Session.StoreTimeout = c.StoreTimeout

	cfg.Security.MaxLoginAttempts = c.LoginMaxAttempts
	cfg.Security.LoginCooldownDuration = c.LoginWindow
	cfg.Security.EnableLoginThrottle = c.LoginMaxAttempts > 0
	cfg.Security.EnableIPThrottle = c.IPThrottle

	cfg.Audit.Enabled = c.AuditLog
	cfg.Metrics.Enabled = c.Metrics
	cfg.Metrics.EnableLatencyHistograms = c.Metrics

	if err := cfg.Validate(); err != nil {
		return goSession.Config{}, fmt.Errorf("engine config: %w", err)
	}
	return cfg, nil
}
