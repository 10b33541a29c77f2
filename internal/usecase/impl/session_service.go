// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "eatsy/internal/delivery/context"
	"eatsy/internal/domain/entity"
	domainerrors "eatsy/internal/domain/errors"
	"eatsy/internal/domain/repository"
	"eatsy/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	txManager        repository.TransactionManager
	refreshTokenRepo repository.RefreshTokenRepository
	sessionStore     repository.SessionStore
	logger           *slog.Logger
}

// SessionServiceParams holds dependencies for sessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	RefreshTokenRepo repository.RefreshTokenRepository
	SessionStore     repository.SessionStore
	Logger           *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		txManager:        params.TxManager,
		refreshTokenRepo: params.RefreshTokenRepo,
		sessionStore:     params.SessionStore,
		logger:           params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetActiveSessions retrieves all active sessions for a user.
func (srv *sessionService) GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.SessionInfo, error) {
	srv.log(ctx).Debug("Getting active sessions", slog.Any("userID", userID))

	tokens, err := srv.refreshTokenRepo.FindRefreshTokensByUserID(ctx, userID)
	if err != nil {
		srv.log(ctx).Error("Failed to get active sessions", slog.Any("error", err), slog.Any("userID", userID))

		return nil, errors.Wrap(err, "failed to get active sessions")
	}

	sessions := make([]*entity.SessionInfo, 0, len(tokens))
	for _, token := range tokens {
		sessions = append(sessions, toSessionInfo(token))
	}

	return sessions, nil
}

// GetSessionInfo retrieves a single session owned by the user.
func (srv *sessionService) GetSessionInfo(ctx context.Context, userID, sessionID uuid.UUID) (*entity.SessionInfo, error) {
	token, err := srv.refreshTokenRepo.FindRefreshTokenByID(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session")
	}

	if token.UserID != userID {
		return nil, errors.Wrap(domainerrors.ErrForbidden, "session does not belong to user")
	}

	return toSessionInfo(token), nil
}

// RevokeSession revokes a specific session by its ID.
func (srv *sessionService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	srv.log(ctx).Info("Attempting to revoke session", slog.Any("userID", userID), slog.Any("sessionID", sessionID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		refreshRepo := repoFactory.NewRefreshTokenRepository()

		// Verify the session belongs to the user before deleting.
		token, err := refreshRepo.FindRefreshTokenByID(ctx, sessionID)
		if err != nil {
			return errors.Wrap(err, "failed to find refresh token")
		}

		if token.UserID != userID {
			return errors.Wrap(domainerrors.ErrForbidden, "session does not belong to user")
		}

		if err := refreshRepo.DeleteRefreshToken(ctx, sessionID); err != nil {
			return errors.Wrap(err, "failed to delete refresh token")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Failed to revoke session", slog.Any("error", err), slog.Any("userID", userID), slog.Any("sessionID", sessionID))

		return errors.Wrap(err, "failed to revoke session")
	}

	if err := srv.sessionStore.DeleteCredentials(ctx, userID, sessionID); err != nil {
		srv.log(ctx).Warn("Failed to delete session credentials", slog.Any("userID", userID), slog.Any("sessionID", sessionID), slog.Any("error", err))
	}
	srv.log(ctx).Info("Successfully revoked session", slog.Any("userID", userID), slog.Any("sessionID", sessionID))

	return nil
}

// RevokeAllSessions revokes every session of a user.
func (srv *sessionService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Info("Revoking all sessions", slog.Any("userID", userID))

	if err := srv.refreshTokenRepo.DeleteRefreshTokensByUserID(ctx, userID); err != nil {
		srv.log(ctx).Error("Failed to revoke all sessions", slog.Any("error", err), slog.Any("userID", userID))

		return errors.Wrap(err, "failed to revoke all sessions")
	}

	if err := srv.sessionStore.DeleteAllCredentials(ctx, userID); err != nil {
		srv.log(ctx).Warn("Failed to delete all session credentials", slog.Any("userID", userID), slog.Any("error", err))
	}

	return nil
}

// RevokeAllOtherSessions revokes every session of a user except the current one.
func (srv *sessionService) RevokeAllOtherSessions(ctx context.Context, userID uuid.UUID, currentSessionID uuid.UUID) error {
	srv.log(ctx).Info("Revoking all other sessions", slog.Any("userID", userID), slog.Any("currentSessionID", currentSessionID))

	tokens, err := srv.refreshTokenRepo.FindRefreshTokensByUserID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to list sessions")
	}

	for _, token := range tokens {
		if token.ID == currentSessionID {
			continue
		}

		if err := srv.refreshTokenRepo.DeleteRefreshToken(ctx, token.ID); err != nil {
			return errors.Wrap(err, "failed to delete refresh token")
		}

		if err := srv.sessionStore.DeleteCredentials(ctx, userID, token.ID); err != nil {
			srv.log(ctx).Warn("Failed to delete session credentials", slog.Any("userID", userID), slog.Any("sessionID", token.ID), slog.Any("error", err))
		}
	}

	return nil
}

// CleanupExpiredSessions removes all expired sessions together with their
// mirrored credentials, returning the number of sessions removed.
func (srv *sessionService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	expired, err := srv.refreshTokenRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		srv.log(ctx).Error("Failed to cleanup expired sessions", slog.Any("error", err))

		return 0, errors.Wrap(err, "failed to cleanup expired sessions")
	}

	for _, token := range expired {
		if err := srv.sessionStore.DeleteCredentials(ctx, token.UserID, token.ID); err != nil {
			srv.log(ctx).Warn("Failed to delete expired session credentials", slog.Any("userID", token.UserID), slog.Any("sessionID", token.ID), slog.Any("error", err))
		}
	}

	if len(expired) > 0 {
		srv.log(ctx).Info("Cleaned up expired sessions", slog.Int("count", len(expired)))
	}

	return len(expired), nil
}

// toSessionInfo converts a refresh token record into its session read model.
func toSessionInfo(token *entity.RefreshToken) *entity.SessionInfo {
	return &entity.SessionInfo{
		ID:        token.ID,
		UserID:    token.UserID,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
		IsActive:  time.Now().Before(token.ExpiresAt),
	}
}
