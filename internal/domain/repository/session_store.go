package repository

import (
	"context"
	"errors"
	"time"

	"eatsy/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when no stored credentials exist for a session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore holds the short-lived credential pairs handed to clients,
// keyed by user and session. The watchdog reads them back to decide which
// sessions are about to lapse, and deletes them to force re-authentication.
type SessionStore interface {
	// SaveCredentials stores the credential pair for a session with a TTL
	// matching the refresh token lifetime.
	SaveCredentials(ctx context.Context, userID, sessionID uuid.UUID, creds *entity.Credentials, ttl time.Duration) error

	// FindCredentials retrieves the stored credential pair for a session.
	FindCredentials(ctx context.Context, userID, sessionID uuid.UUID) (*entity.Credentials, error)

	// DeleteCredentials removes the stored credential pair for a session.
	DeleteCredentials(ctx context.Context, userID, sessionID uuid.UUID) error

	// DeleteAllCredentials removes every stored credential pair for a user.
	DeleteAllCredentials(ctx context.Context, userID uuid.UUID) error

	// ActiveUserIDs lists the users that currently have at least one stored
	// credential pair.
	ActiveUserIDs(ctx context.Context) ([]uuid.UUID, error)
}
