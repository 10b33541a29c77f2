// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eatsy/config"
	"eatsy/internal/domain/repository"
	"eatsy/internal/domain/service"
	"eatsy/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Watchdog cadence defaults, used when the configuration leaves them unset.
const (
	defaultSweepInterval   = time.Minute
	defaultPrecisionLeeway = 5 * time.Second
	defaultExpiryHorizon   = 24 * time.Hour
)

// SessionMonitor proactively expires user sessions instead of waiting for the
// next request to discover a dead token.
//
// Two triggers drive it. A repeating sweep runs every SweepInterval and does
// the bulk work: purging expired refresh tokens, judging every mirrored
// credential pair with the token inspector, and notifying the affected
// devices. On top of that, each sweep arms a one-shot precision timer that
// fires PrecisionLeeway before the earliest upcoming expiry, provided that
// expiry falls within ExpiryHorizon. The one-shot exists so a session ending
// between two sweeps is caught within seconds of its actual expiry rather
// than up to a full sweep late. Re-arming on every sweep keeps the timer
// tracking the earliest expiry as sessions come and go.
type SessionMonitor struct {
	sweepInterval   time.Duration
	precisionLeeway time.Duration
	expiryHorizon   time.Duration
	enabled         bool

	refreshTokenRepo repository.RefreshTokenRepository
	sessionStore     repository.SessionStore
	inspector        service.TokenInspector
	notifier         service.NotificationService
	logger           *slog.Logger

	mu             sync.Mutex
	precisionTimer *time.Timer
	precisionC     chan struct{}
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// SessionMonitorParams holds dependencies for SessionMonitor, injected by Fx.
type SessionMonitorParams struct {
	fx.In

	RefreshTokenRepo repository.RefreshTokenRepository
	SessionStore     repository.SessionStore
	Inspector        service.TokenInspector
	Notifier         service.NotificationService `optional:"true"`
	Config           *config.Config
	Logger           *slog.Logger
}

// NewSessionMonitor is the constructor for SessionMonitor.
func NewSessionMonitor(params SessionMonitorParams) *SessionMonitor {
	monitor := &SessionMonitor{
		sweepInterval:    defaultSweepInterval,
		precisionLeeway:  defaultPrecisionLeeway,
		expiryHorizon:    defaultExpiryHorizon,
		refreshTokenRepo: params.RefreshTokenRepo,
		sessionStore:     params.SessionStore,
		inspector:        params.Inspector,
		notifier:         params.Notifier,
		logger:           params.Logger,
		precisionC:       make(chan struct{}, 1),
	}

	if cfg := params.Config.SessionMonitor; cfg != nil {
		monitor.enabled = cfg.Enabled
		if cfg.SweepInterval > 0 {
			monitor.sweepInterval = cfg.SweepInterval
		}
		if cfg.PrecisionLeeway > 0 {
			monitor.precisionLeeway = cfg.PrecisionLeeway
		}
		if cfg.ExpiryHorizon > 0 {
			monitor.expiryHorizon = cfg.ExpiryHorizon
		}
	}

	return monitor
}

// Start launches the watchdog loop. It is a no-op when the monitor is disabled.
func (m *SessionMonitor) Start() error {
	if !m.enabled {
		m.logger.Info("Session monitor disabled")

		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return errors.New("session monitor already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(1)
	go m.run(ctx)

	m.logger.Info("Session monitor started",
		slog.Duration("sweepInterval", m.sweepInterval),
		slog.Duration("precisionLeeway", m.precisionLeeway),
		slog.Duration("expiryHorizon", m.expiryHorizon))

	return nil
}

// Stop tears down the sweep loop and any armed precision timer, waiting for
// an in-flight sweep to finish.
func (m *SessionMonitor) Stop() error {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	m.wg.Wait()
	m.disarmPrecisionTimer()
	m.logger.Info("Session monitor stopped")

	return nil
}

func (m *SessionMonitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	// First sweep right away so a restart does not leave expired sessions
	// lingering for a full interval.
	m.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		case <-m.precisionC:
			m.sweep(ctx)
		}
	}
}

// sweep performs one full pass: purge expired sessions, judge mirrored
// credentials, then re-arm the precision timer for the next expiry.
func (m *SessionMonitor) sweep(ctx context.Context) {
	m.purgeExpired(ctx)
	m.judgeMirroredCredentials(ctx)
	m.armPrecisionTimer(ctx)
}

// purgeExpired removes refresh tokens whose database expiry has passed,
// together with their mirrored credentials, and notifies the devices.
func (m *SessionMonitor) purgeExpired(ctx context.Context) {
	expired, err := m.refreshTokenRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		m.logger.Error("Session sweep failed to purge expired tokens", slog.Any("error", err))

		return
	}

	for _, token := range expired {
		if err := m.sessionStore.DeleteCredentials(ctx, token.UserID, token.ID); err != nil {
			m.logger.Warn("Failed to delete expired session credentials",
				slog.Any("userID", token.UserID), slog.Any("sessionID", token.ID), slog.Any("error", err))
		}
		m.notifySessionExpired(ctx, token.DeviceToken, token.ID.String())
	}

	if len(expired) > 0 {
		m.logger.Info("Session sweep purged expired sessions", slog.Int("count", len(expired)))
	}
}

// judgeMirroredCredentials walks every mirrored credential pair and expires
// sessions whose refresh token no longer passes inspection. The inspector
// reads only the exp claim, so this also catches tokens the database still
// believes are live.
func (m *SessionMonitor) judgeMirroredCredentials(ctx context.Context) {
	userIDs, err := m.sessionStore.ActiveUserIDs(ctx)
	if err != nil {
		m.logger.Error("Session sweep failed to list active users", slog.Any("error", err))

		return
	}

	for _, userID := range userIDs {
		sessions, err := m.refreshTokenRepo.FindRefreshTokensByUserID(ctx, userID)
		if err != nil {
			m.logger.Warn("Session sweep failed to list user sessions", slog.Any("userID", userID), slog.Any("error", err))

			continue
		}

		for _, session := range sessions {
			creds, err := m.sessionStore.FindCredentials(ctx, userID, session.ID)
			if err != nil {
				if !errors.Is(err, repository.ErrSessionNotFound) {
					m.logger.Warn("Session sweep failed to load credentials",
						slog.Any("userID", userID), slog.Any("sessionID", session.ID), slog.Any("error", err))
				}

				continue
			}

			if m.inspector.IsValid(creds.RefreshToken) {
				continue
			}

			m.expireSession(ctx, userID, session.ID, session.DeviceToken)
		}
	}
}

// expireSession removes one session from both stores and notifies its device.
func (m *SessionMonitor) expireSession(ctx context.Context, userID, sessionID uuid.UUID, deviceToken string) {
	if err := m.refreshTokenRepo.DeleteRefreshToken(ctx, sessionID); err != nil {
		m.logger.Warn("Failed to delete refresh token for lapsed session",
			slog.Any("userID", userID), slog.Any("sessionID", sessionID), slog.Any("error", err))
	}

	if err := m.sessionStore.DeleteCredentials(ctx, userID, sessionID); err != nil {
		m.logger.Warn("Failed to delete credentials for lapsed session",
			slog.Any("userID", userID), slog.Any("sessionID", sessionID), slog.Any("error", err))
	}

	m.notifySessionExpired(ctx, deviceToken, sessionID.String())
	m.logger.Info("Expired lapsed session", slog.Any("userID", userID), slog.Any("sessionID", sessionID))
}

// notifySessionExpired pushes a "session expired" notice to the device that
// opened the session, when it registered a device token.
func (m *SessionMonitor) notifySessionExpired(ctx context.Context, deviceToken, sessionID string) {
	if m.notifier == nil || deviceToken == "" {
		return
	}

	data := map[string]string{
		"type":       "session_expired",
		"session_id": sessionID,
	}
	if err := m.notifier.SendSingleNotification(ctx, deviceToken, "登入階段已過期", "您的登入階段已過期，請重新登入。", data); err != nil {
		m.logger.Warn("Failed to send session expiry notification", slog.String("sessionID", sessionID), slog.Any("error", err))
	}
}

// armPrecisionTimer schedules the one-shot check shortly before the earliest
// upcoming expiry, replacing any previously armed timer.
func (m *SessionMonitor) armPrecisionTimer(ctx context.Context) {
	next, ok, err := m.refreshTokenRepo.NextExpiry(ctx)
	if err != nil {
		m.logger.Warn("Session sweep failed to find next expiry", slog.Any("error", err))

		return
	}

	m.disarmPrecisionTimer()

	if !ok {
		return
	}

	until := time.Until(next)
	if until > m.expiryHorizon {
		// Too far out; the regular sweeps will re-evaluate long before then.
		return
	}

	fireIn := until - m.precisionLeeway
	if fireIn < 0 {
		fireIn = 0
	}

	m.mu.Lock()
	m.precisionTimer = time.AfterFunc(fireIn, func() {
		select {
		case m.precisionC <- struct{}{}:
		default:
		}
	})
	m.mu.Unlock()

	m.logger.Debug("Armed precision expiry check",
		slog.Time("nextExpiry", next), slog.String("fireIn", util.FormatDuration(fireIn)))
}

func (m *SessionMonitor) disarmPrecisionTimer() {
	m.mu.Lock()
	if m.precisionTimer != nil {
		m.precisionTimer.Stop()
		m.precisionTimer = nil
	}
	m.mu.Unlock()
}
