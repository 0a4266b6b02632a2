// Package auth adapts the external auth backend to launch week sessions.
//
// The auth backend signs session tokens with a shared HMAC secret and
// pushes session transitions through a webhook. This package verifies
// those tokens and fans the pushed events out to page-scoped stores.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
)

// ErrInvalidToken reports a token that is malformed, forged or expired.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the JWT claims carried by a session token. Subject is the user id.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens verifies and issues HS256 session tokens.
type Tokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokens builds a token codec. The secret must be at least 32 bytes.
func NewTokens(secret, issuer string) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, fmt.Errorf("session issuer is required")
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for s. It backs local tooling; production tokens
// come from the auth backend.
func (t *Tokens) Issue(s session.Session) (string, error) {
	if strings.TrimSpace(s.UserID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := t.now()
	claims := Claims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  s.UserID,
			Issuer:   t.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if !s.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(s.ExpiresAt)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns the session it carries.
func (t *Tokens) Verify(token string) (session.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return session.Session{}, ErrInvalidToken
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return session.Session{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	out := session.Session{
		ID:     strings.TrimSpace(claims.SessionID),
		UserID: userID,
		Token:  token,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}
