package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var (
	testAccessSecret  = []byte("access-secret-access-secret-0001")
	testRefreshSecret = []byte("refresh-secret-refresh-secret-01")
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(Config{
		Access:  KeyConfig{Secret: testAccessSecret},
		Refresh: KeyConfig{Secret: testRefreshSecret},
		Issuer:  "gosession-test",
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		token, issued, err := c.Issue("user-1", kind, 15*time.Minute)
		if err != nil {
			t.Fatalf("issue %s: %v", kind, err)
		}
		claims, err := c.Verify(token, kind)
		if err != nil {
			t.Fatalf("verify %s: %v", kind, err)
		}
		if claims.Subject != "user-1" || claims.Kind != kind {
			t.Fatalf("unexpected claims: %+v", claims)
		}
		if !claims.ExpiresAt.Time.Equal(issued.ExpiresAt.Time) {
			t.Fatalf("expiry mismatch: %v vs %v", claims.ExpiresAt, issued.ExpiresAt)
		}
		if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
			t.Fatalf("expected 15m validity, got %v", got)
		}
	}
}

func TestIssueSameSecondProducesDistinctTokens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	a, _, err := c.Issue("user-1", KindAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, _, err := c.Issue("user-1", KindAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens for repeated issuance")
	}
}

func TestVerifyRejectsWrongKindSecret(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	refresh, _, err := c.Issue("user-1", KindRefresh, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := c.Verify(refresh, KindAccess); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	claims := Claims{Kind: KindAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "gosession-test",
		IssuedAt:  gjwt.NewNumericDate(clock.now),
		ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute)),
	}}
	forged, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("attacker-secret-attacker-secret!"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.Verify(forged, KindAccess); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	token, _, err := c.Issue("user-1", KindAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.now = clock.now.Add(time.Minute)
	if _, err := c.Verify(token, KindAccess); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at exact expiry, got %v", err)
	}
}

func TestVerifySignatureTakesPrecedenceOverExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	refresh, _, err := c.Issue("user-1", KindRefresh, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock.now = clock.now.Add(time.Hour)
	if _, err := c.Verify(refresh, KindAccess); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	c := newTestCodec(t, &fakeClock{now: time.Now()})

	for _, input := range []string{"", "abc", "a.b.c", strings.Repeat("x", 300)} {
		if _, err := c.Verify(input, KindAccess); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", input, err)
		}
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	token, _, err := c.Issue("user-1", KindAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other, _, err := c.Issue("user-2", KindAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	tampered := parts[0] + "." + otherParts[1] + "." + parts[2]
	if _, err := c.Verify(tampered, KindAccess); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	claims := Claims{Kind: KindAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString(testAccessSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.Verify(token, KindAccess); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected wrong algorithm to be rejected as signature invalid, got %v", err)
	}
}

func TestVerifyRejectsFutureIssuedAt(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCodec(t, clock)

	claims := Claims{Kind: KindAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "gosession-test",
		IssuedAt:  gjwt.NewNumericDate(clock.now.Add(time.Hour)),
		ExpiresAt: gjwt.NewNumericDate(clock.now.Add(2 * time.Hour)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testAccessSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.Verify(token, KindAccess); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestKeyRotationAcceptsRetiredKid(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	oldSecret := []byte("old-access-secret-old-access-sec")

	old, err := NewCodec(Config{
		Access:  KeyConfig{Secret: oldSecret, KeyID: "k1"},
		Refresh: KeyConfig{Secret: testRefreshSecret},
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("old codec: %v", err)
	}
	token, _, err := old.Issue("user-1", KindAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rotated, err := NewCodec(Config{
		Access: KeyConfig{
			Secret:     testAccessSecret,
			KeyID:      "k2",
			VerifyKeys: map[string][]byte{"k1": oldSecret, "k2": testAccessSecret},
		},
		Refresh: KeyConfig{Secret: testRefreshSecret},
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("rotated codec: %v", err)
	}
	if _, err := rotated.Verify(token, KindAccess); err != nil {
		t.Fatalf("expected retired kid to verify: %v", err)
	}

	retired, err := NewCodec(Config{
		Access:  KeyConfig{Secret: testAccessSecret, KeyID: "k2"},
		Refresh: KeyConfig{Secret: testRefreshSecret},
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("retired codec: %v", err)
	}
	if _, err := retired.Verify(token, KindAccess); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected unknown kid to be rejected, got %v", err)
	}
}

func TestNewCodecValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"short access secret", Config{Access: KeyConfig{Secret: []byte("short")}, Refresh: KeyConfig{Secret: testRefreshSecret}}},
		{"shared secret", Config{Access: KeyConfig{Secret: testAccessSecret}, Refresh: KeyConfig{Secret: testAccessSecret}}},
		{"kid missing from verify set", Config{
			Access:  KeyConfig{Secret: testAccessSecret, KeyID: "k9", VerifyKeys: map[string][]byte{"k1": testAccessSecret}},
			Refresh: KeyConfig{Secret: testRefreshSecret},
		}},
		{"negative future iat", Config{Access: KeyConfig{Secret: testAccessSecret}, Refresh: KeyConfig{Secret: testRefreshSecret}, MaxFutureIAT: -time.Second}},
	}
	for _, tc := range cases {
		if _, err := NewCodec(tc.cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestUnknownKind(t *testing.T) {
	c := newTestCodec(t, &fakeClock{now: time.Now()})
	if _, _, err := c.Issue("user-1", Kind("other"), time.Minute); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := c.Verify("a.b.c", Kind("other")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRefreshKindOptional(t *testing.T) {
	c, err := NewCodec(Config{Access: KeyConfig{Secret: testAccessSecret}})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	if !c.Enabled(KindAccess) || c.Enabled(KindRefresh) {
		t.Fatal("expected only the access kind to be enabled")
	}
	if _, _, err := c.Issue("user-1", KindRefresh, time.Minute); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
