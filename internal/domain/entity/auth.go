// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Authentication represents a single method of logging in (a credential).
// For example, a user's email/password is one record.
type Authentication struct {
	ID             uuid.UUID // The unique ID for this specific authentication record itself.
	UserID         uuid.UUID // Links this authentication method to the User it belongs to.
	Provider       string    // The authentication provider, e.g., "email".
	ProviderUserID string    // The user's unique ID at the provider (the email address for the "email" provider).
	PasswordHash   string    // Stores the bcrypt-hashed password, only used when the Provider is "email".
	CreatedAt      time.Time // Timestamp of when this authentication method was linked to the user account.
}

// ProviderTypeEmail is the provider value for password-based credentials.
const ProviderTypeEmail = "email"

// RefreshToken represents a long-lived, authorized user session.
// It is used to obtain a new Access Token after the old one expires, without requiring credentials.
type RefreshToken struct {
	ID          uuid.UUID // The unique ID for this specific refresh token record.
	UserID      uuid.UUID // Links this session to the User it belongs to.
	TokenHash   string    // Stores a SHA-256 hash of the raw refresh token for secure comparison in the database.
	DeviceToken string    // Optional FCM registration token of the device that opened this session.
	ExpiresAt   time.Time // The exact time when this refresh token will expire and become invalid.
	CreatedAt   time.Time // Timestamp of when this session was created (i.e., when the user logged in).
}

// SessionInfo is a read model describing one active session of a user.
type SessionInfo struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	IsActive  bool
}

// Credentials is the access/refresh token pair held in the session store for
// one user session. Both values are raw bearer strings; the refresh token is
// additionally persisted hashed in the database.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
