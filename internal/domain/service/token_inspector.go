package service

import "time"

// TokenInspector answers temporal questions about a bearer token without
// verifying its signature. It only reads the exp claim, so it can judge
// tokens issued by any party. Signature checks stay with TokenService.
type TokenInspector interface {
	// IsValid reports whether the token is well formed and not yet expired.
	// Malformed input of any kind yields false, never an error.
	IsValid(tokenString string) bool

	// ExpiresAt returns the token's expiration time. The boolean is false
	// when the token is malformed or carries no expiration claim.
	ExpiresAt(tokenString string) (time.Time, bool)
}
