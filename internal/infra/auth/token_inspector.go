// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eatsy/internal/domain/service"
)

// tokenInspector answers expiry questions about JWTs without verifying their
// signature. Decoding failures of any kind are folded into a negative answer,
// so callers never have to distinguish "garbage" from "expired".
type tokenInspector struct {
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenInspector is the constructor for tokenInspector.
func NewTokenInspector() service.TokenInspector {
	return &tokenInspector{
		parser: jwt.NewParser(),
		now:    time.Now,
	}
}

// NewTokenInspectorWithClock creates a tokenInspector with an injected clock,
// so expiry boundaries can be tested deterministically.
func NewTokenInspectorWithClock(now func() time.Time) service.TokenInspector {
	return &tokenInspector{
		parser: jwt.NewParser(),
		now:    now,
	}
}

// IsValid reports whether the token decodes and its exp claim lies strictly
// in the future. A token without an exp claim is not considered valid.
func (i *tokenInspector) IsValid(tokenString string) bool {
	exp, ok := i.ExpiresAt(tokenString)
	if !ok {
		return false
	}
	return exp.After(i.now())
}

// ExpiresAt returns the token's expiration time. The boolean is false when
// the token cannot be decoded or carries no exp claim.
func (i *tokenInspector) ExpiresAt(tokenString string) (time.Time, bool) {
	claims, ok := i.decode(tokenString)
	if !ok {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// decode parses the token without signature verification. Only the payload
// structure matters here; trust decisions belong to TokenService.
func (i *tokenInspector) decode(tokenString string) (jwt.MapClaims, bool) {
	if tokenString == "" {
		return nil, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, false
	}
	return claims, true
}
