package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"requirement-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken is returned for every verification failure. Callers must not
// tell a bad signature apart from an expired or malformed token.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the JWT claims for user authentication. Subject holds the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// New creates a JWT utility from the token configuration
func New(cfg config.JWTConfig) *JWTUtil {
	minutes := cfg.ExpirationMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return &JWTUtil{
		signingKey: []byte(cfg.SigningKey),
		ttl:        time.Duration(minutes) * time.Minute,
		now:        time.Now,
	}
}

// WithClock returns a copy of j that reads time from now
func (j *JWTUtil) WithClock(now func() time.Time) *JWTUtil {
	cp := *j
	cp.now = now
	return &cp
}

// TTL is the lifetime of issued tokens
func (j *JWTUtil) TTL() time.Duration {
	return j.ttl
}

// IssueToken creates a signed token for the user and returns it with its expiry
func (j *JWTUtil) IssueToken(subjectID, username string) (string, time.Time, error) {
	if len(j.signingKey) == 0 {
		return "", time.Time{}, errors.New("JWT signing key not configured")
	}

	issuedAt := j.now()
	expiresAt := issuedAt.Add(j.ttl)

	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken validates and parses the token. All failures collapse to ErrInvalidToken.
func (j *JWTUtil) VerifyToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	// jwt/v4 checks exp with its package clock; the injected clock is checked below
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(j.now()) {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
