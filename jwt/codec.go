package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind identifies which session slot a token belongs to.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on protected requests.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived tokens exchanged for new access tokens.
	KindRefresh Kind = "refresh"
)

// Valid reports whether k is a known token kind.
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

const minSecretBytes = 32

var (
	// ErrMalformed is returned when a token cannot be decoded or carries invalid claims.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is returned when a token was not signed by the secret for its kind.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired is returned when a correctly signed token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrUnknownKind is returned when a caller asks for an unsupported token kind.
	ErrUnknownKind = errors.New("unknown token kind")
)

// KeyConfig holds the signing material for a single token kind.
//
// Secret signs new tokens. VerifyKeys, when set, is the accepted set during rotation,
// keyed by kid; KeyID then selects which entry Secret corresponds to.
type KeyConfig struct {
	Secret     []byte
	KeyID      string
	VerifyKeys map[string][]byte
}

// Config configures a [Codec].
type Config struct {
	Access       KeyConfig
	Refresh      KeyConfig
	Issuer       string
	MaxFutureIAT time.Duration
	Now          func() time.Time
}

// Claims is the payload carried by every token.
type Claims struct {
	Kind Kind `json:"knd"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens. It is immutable after construction and safe for
// concurrent use.
type Codec struct {
	keys         map[Kind]KeyConfig
	issuer       string
	maxFutureIAT time.Duration
	now          func() time.Time
}

// NewCodec validates cfg and returns a ready [Codec].
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	access, err := normalizeKey(KindAccess, cfg.Access)
	if err != nil {
		return nil, err
	}
	keys := map[Kind]KeyConfig{KindAccess: access}

	// A zero Refresh key disables the refresh kind (single-token mode).
	if len(cfg.Refresh.Secret) > 0 || len(cfg.Refresh.VerifyKeys) > 0 {
		refresh, err := normalizeKey(KindRefresh, cfg.Refresh)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(access.Secret, refresh.Secret) {
			return nil, errors.New("access and refresh secrets must differ")
		}
		keys[KindRefresh] = refresh
	}

	return &Codec{
		keys:         keys,
		issuer:       strings.TrimSpace(cfg.Issuer),
		maxFutureIAT: cfg.MaxFutureIAT,
		now:          cfg.Now,
	}, nil
}

// Enabled reports whether kind has signing material configured.
func (c *Codec) Enabled(kind Kind) bool {
	_, ok := c.keys[kind]
	return ok
}

func normalizeKey(kind Kind, key KeyConfig) (KeyConfig, error) {
	if len(key.Secret) < minSecretBytes {
		return KeyConfig{}, fmt.Errorf("%s secret must be at least %d bytes", kind, minSecretBytes)
	}
	key.KeyID = strings.TrimSpace(key.KeyID)
	for kid, secret := range key.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return KeyConfig{}, fmt.Errorf("%s verify key map contains empty kid", kind)
		}
		if len(secret) < minSecretBytes {
			return KeyConfig{}, fmt.Errorf("%s verify key %q must be at least %d bytes", kind, kid, minSecretBytes)
		}
	}
	if len(key.VerifyKeys) > 0 {
		if key.KeyID == "" {
			return KeyConfig{}, fmt.Errorf("%s KeyID is required when VerifyKeys are set", kind)
		}
		current, ok := key.VerifyKeys[key.KeyID]
		if !ok {
			return KeyConfig{}, fmt.Errorf("%s KeyID is not present in VerifyKeys", kind)
		}
		if !bytes.Equal(current, key.Secret) {
			return KeyConfig{}, fmt.Errorf("%s VerifyKeys[KeyID] must equal Secret", kind)
		}
	}
	return key, nil
}

// Issue signs a new token of the given kind for subject, valid for ttl from now.
func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration) (string, *Claims, error) {
	key, ok := c.keys[kind]
	if !ok {
		return "", nil, ErrUnknownKind
	}
	if subject == "" {
		return "", nil, errors.New("subject required")
	}
	if ttl <= 0 {
		return "", nil, errors.New("invalid TTL")
	}

	now := c.now()
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    c.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if key.KeyID != "" {
		token.Header["kid"] = key.KeyID
	}

	signed, err := token.SignedString(key.Secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks the signature of tokenStr against the secret(s) registered for kind and
// then its expiry. Signature failures take precedence over expiry.
func (c *Codec) Verify(tokenStr string, kind Kind) (*Claims, error) {
	key, ok := c.keys[kind]
	if !ok {
		return nil, ErrUnknownKind
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if len(key.VerifyKeys) > 0 {
			secret, ok := key.VerifyKeys[kid]
			if !ok {
				return nil, errors.New("unknown kid")
			}
			return secret, nil
		}
		if key.KeyID != "" && kid != key.KeyID {
			return nil, errors.New("unknown kid")
		}
		return key.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	// Only reachable when two kinds share a verify key, which NewCodec forbids for the
	// signing secrets but not for retired rotation keys.
	if claims.Kind != kind {
		return nil, ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(c.now().Add(c.maxFutureIAT)) {
		return nil, ErrMalformed
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
