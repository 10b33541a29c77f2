package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eatsy/config"
	"eatsy/internal/domain/entity"
	"eatsy/internal/domain/repository"
	"eatsy/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionScanBatchSize = 200

// sessionStore implements the domain.SessionStore interface on Redis.
// Keys follow "<prefix>session:<userID>:<sessionID>" so one SCAN pattern can
// enumerate a single user's sessions or the whole population.
type sessionStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewSessionStore is the constructor for sessionStore.
func NewSessionStore(client *redis.Client, cfg *config.Config) repository.SessionStore {
	keyPrefix := defaultKeyPrefix
	if cfg.Redis != nil && cfg.Redis.KeyPrefix != "" {
		keyPrefix = cfg.Redis.KeyPrefix
	}

	return &sessionStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// SaveCredentials stores the credential pair for a session with a TTL matching
// the refresh token lifetime, so abandoned entries age out on their own.
func (s *sessionStore) SaveCredentials(ctx context.Context, userID, sessionID uuid.UUID, creds *entity.Credentials, ttl time.Duration) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "failed to encode credentials")
	}

	if err := s.client.Set(ctx, s.sessionKey(userID, sessionID), raw, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save credentials")
	}

	return nil
}

// FindCredentials retrieves the stored credential pair for a session.
func (s *sessionStore) FindCredentials(ctx context.Context, userID, sessionID uuid.UUID) (*entity.Credentials, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(userID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to load credentials")
	}

	var creds entity.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, errors.Wrap(err, "failed to decode credentials")
	}

	return &creds, nil
}

// DeleteCredentials removes the stored credential pair for a session.
func (s *sessionStore) DeleteCredentials(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.client.Del(ctx, s.sessionKey(userID, sessionID)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete credentials")
	}

	return nil
}

// DeleteAllCredentials removes every stored credential pair for a user.
func (s *sessionStore) DeleteAllCredentials(ctx context.Context, userID uuid.UUID) error {
	pattern := fmt.Sprintf("%ssession:%s:*", s.keyPrefix, userID)

	iter := s.client.Scan(ctx, 0, pattern, sessionScanBatchSize).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return errors.Wrap(err, "failed to delete credentials")
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "failed to scan sessions")
	}

	return nil
}

// ActiveUserIDs lists the users that currently have at least one stored
// credential pair.
func (s *sessionStore) ActiveUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	pattern := s.keyPrefix + "session:*"

	seen := make(map[uuid.UUID]struct{})
	iter := s.client.Scan(ctx, 0, pattern, sessionScanBatchSize).Iterator()
	for iter.Next(ctx) {
		userID, ok := s.userIDFromKey(iter.Val())
		if !ok {
			continue
		}
		seen[userID] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan sessions")
	}

	userIDs := make([]uuid.UUID, 0, len(seen))
	for userID := range seen {
		userIDs = append(userIDs, userID)
	}

	return userIDs, nil
}

func (s *sessionStore) sessionKey(userID, sessionID uuid.UUID) string {
	return fmt.Sprintf("%ssession:%s:%s", s.keyPrefix, userID, sessionID)
}

// userIDFromKey extracts the user ID segment from a session key.
func (s *sessionStore) userIDFromKey(key string) (uuid.UUID, bool) {
	trimmed := strings.TrimPrefix(key, s.keyPrefix+"session:")
	segment, _, found := strings.Cut(trimmed, ":")
	if !found {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(segment)
	if err != nil {
		return uuid.Nil, false
	}

	return userID, true
}
