package jwtutil

import (
	"errors"
	"strings"
	"testing"
	"time"

	"requirement-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

func newUtil(t *testing.T) *JWTUtil {
	t.Helper()
	return New(config.JWTConfig{SigningKey: "test-secret", ExpirationMinutes: 30})
}

func TestIssueAndVerify(t *testing.T) {
	j := newUtil(t)

	token, expiresAt, err := j.IssueToken("user-1", "alice")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if d := time.Until(expiresAt); d < 29*time.Minute || d > 31*time.Minute {
		t.Errorf("expiresAt in %v, want about 30m", d)
	}

	claims, err := j.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != "user-1" || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyFailuresAreUniform(t *testing.T) {
	j := newUtil(t)
	good, _, err := j.IssueToken("user-1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	otherKey := New(config.JWTConfig{SigningKey: "another-secret", ExpirationMinutes: 30})
	forged, _, _ := otherKey.IssueToken("user-1", "alice")

	expired, _, _ := j.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).IssueToken("user-1", "alice")

	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := map[string]string{
		"wrong key": forged,
		"expired":   expired,
		"none alg":  unsigned,
		"tampered":  tampered,
		"malformed": "not.a.token",
		"empty":     "",
		"random":    "abc",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := j.VerifyToken(token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("VerifyToken error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyUsesInjectedClock(t *testing.T) {
	j := newUtil(t)
	token, _, err := j.IssueToken("user-1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	later := j.WithClock(func() time.Time { return time.Now().Add(time.Hour) })
	if _, err := later.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token still valid an hour later: %v", err)
	}
}

func TestDefaultTTL(t *testing.T) {
	j := New(config.JWTConfig{SigningKey: "k"})
	if j.TTL() != 30*time.Minute {
		t.Errorf("TTL = %v, want 30m", j.TTL())
	}
}
