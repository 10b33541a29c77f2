package impl

import (
	"context"
	"testing"
	"time"

	"eatsy/config"
	"eatsy/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionMonitorFixture struct {
	monitor      *SessionMonitor
	refreshRepo  *fakeRefreshTokenRepo
	sessionStore *fakeSessionStore
	inspector    *fakeInspector
	notifier     *fakeNotifier
}

func newSessionMonitorFixture(monitorCfg *config.SessionMonitorConfig) *sessionMonitorFixture {
	refreshRepo := newFakeRefreshTokenRepo()
	sessionStore := newFakeSessionStore()
	inspector := newFakeInspector()
	notifier := &fakeNotifier{}

	cfg := newTestConfig(0)
	cfg.SessionMonitor = monitorCfg

	return &sessionMonitorFixture{
		monitor: NewSessionMonitor(SessionMonitorParams{
			RefreshTokenRepo: refreshRepo,
			SessionStore:     sessionStore,
			Inspector:        inspector,
			Notifier:         notifier,
			Config:           cfg,
			Logger:           newDiscardLogger(),
		}),
		refreshRepo:  refreshRepo,
		sessionStore: sessionStore,
		inspector:    inspector,
		notifier:     notifier,
	}
}

// seedMirroredSession creates one refresh token row plus its mirrored
// credential pair, the state a successful login leaves behind.
func (f *sessionMonitorFixture) seedMirroredSession(t *testing.T, refreshToken, deviceToken string, expiresAt time.Time) *entity.RefreshToken {
	t.Helper()
	ctx := context.Background()
	session := &entity.RefreshToken{
		UserID:      uuid.New(),
		TokenHash:   "hash:" + refreshToken,
		DeviceToken: deviceToken,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, f.refreshRepo.CreateRefreshToken(ctx, session))
	require.NoError(t, f.sessionStore.SaveCredentials(ctx, session.UserID, session.ID,
		&entity.Credentials{AccessToken: "access", RefreshToken: refreshToken}, time.Until(expiresAt)))

	return session
}

func TestSessionMonitor_Start_DisabledIsNoop(t *testing.T) {
	fixture := newSessionMonitorFixture(&config.SessionMonitorConfig{Enabled: false})

	require.NoError(t, fixture.monitor.Start())
	require.NoError(t, fixture.monitor.Stop())
}

func TestSessionMonitor_Start_TwiceFails(t *testing.T) {
	fixture := newSessionMonitorFixture(&config.SessionMonitorConfig{
		Enabled:       true,
		SweepInterval: time.Hour,
	})

	require.NoError(t, fixture.monitor.Start())
	defer func() { require.NoError(t, fixture.monitor.Stop()) }()

	require.Error(t, fixture.monitor.Start())
}

func TestSessionMonitor_Stop_WithoutStart(t *testing.T) {
	fixture := newSessionMonitorFixture(&config.SessionMonitorConfig{Enabled: true})

	require.NoError(t, fixture.monitor.Stop())
}

func TestSessionMonitor_FirstSweepPurgesExpiredSessions(t *testing.T) {
	fixture := newSessionMonitorFixture(&config.SessionMonitorConfig{
		Enabled:       true,
		SweepInterval: time.Hour, // only the immediate first sweep runs
	})
	expired := fixture.seedMirroredSession(t, "old-token", "device-1", time.Now().Add(-time.Minute))
	live := fixture.seedMirroredSession(t, "live-token", "device-2", time.Now().Add(time.Hour))

	require.NoError(t, fixture.monitor.Start())
	defer func() { require.NoError(t, fixture.monitor.Stop()) }()

	assert.Eventually(t, func() bool {
		return fixture.refreshRepo.count() == 1 && !fixture.sessionStore.has(expired.UserID, expired.ID)
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, fixture.sessionStore.has(live.UserID, live.ID))
	// The expired session's device got exactly one notice.
	assert.Eventually(t, func() bool { return fixture.notifier.sentCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionMonitor_SweepExpiresSessionsFailingInspection(t *testing.T) {
	fixture := newSessionMonitorFixture(&config.SessionMonitorConfig{
		Enabled:       true,
		SweepInterval: 50 * time.Millisecond,
	})
	// Database still believes both sessions are live; one mirrored refresh
	// token no longer passes inspection.
	lapsed := fixture.seedMirroredSession(t, "lapsed-token", "device-1", time.Now().Add(time.Hour))
	healthy := fixture.seedMirroredSession(t, "healthy-token", "", time.Now().Add(time.Hour))
	fixture.inspector.markInvalid("lapsed-token")

	require.NoError(t, fixture.monitor.Start())
	defer func() { require.NoError(t, fixture.monitor.Stop()) }()

	assert.Eventually(t, func() bool {
		return !fixture.sessionStore.has(lapsed.UserID, lapsed.ID)
	}, 2*time.Second, 10*time.Millisecond)

	// The lapsed session is gone from the database too; the healthy one stays.
	_, err := fixture.refreshRepo.FindRefreshTokenByID(context.Background(), lapsed.ID)
	require.Error(t, err)
	_, err = fixture.refreshRepo.FindRefreshTokenByID(context.Background(), healthy.ID)
	require.NoError(t, err)
	assert.True(t, fixture.sessionStore.has(healthy.UserID, healthy.ID))
}

func TestSessionMonitor_PrecisionTimerCatchesExpiryBetweenSweeps(t *testing.T) {
	fixture := newSessionMonitorFixture(&config.SessionMonitorConfig{
		Enabled:         true,
		SweepInterval:   time.Hour, // far too slow to catch the expiry on its own
		PrecisionLeeway: time.Millisecond,
		ExpiryHorizon:   time.Hour,
	})
	// Expires shortly after the first sweep; only the one-shot can catch it.
	soon := fixture.seedMirroredSession(t, "soon-token", "device-1", time.Now().Add(150*time.Millisecond))

	require.NoError(t, fixture.monitor.Start())
	defer func() { require.NoError(t, fixture.monitor.Stop()) }()

	assert.Eventually(t, func() bool {
		return fixture.refreshRepo.count() == 0 && !fixture.sessionStore.has(soon.UserID, soon.ID)
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSessionMonitor_PrecisionTimerSkipsExpiryBeyondHorizon(t *testing.T) {
	fixture := newSessionMonitorFixture(&config.SessionMonitorConfig{
		Enabled:         true,
		SweepInterval:   time.Hour,
		PrecisionLeeway: time.Millisecond,
		ExpiryHorizon:   50 * time.Millisecond,
	})
	// Expires within the test but beyond the horizon, so no one-shot is armed
	// and the hourly sweep will not run again in time.
	distant := fixture.seedMirroredSession(t, "distant-token", "", time.Now().Add(300*time.Millisecond))

	require.NoError(t, fixture.monitor.Start())
	defer func() { require.NoError(t, fixture.monitor.Stop()) }()

	time.Sleep(600 * time.Millisecond)
	_, err := fixture.refreshRepo.FindRefreshTokenByID(context.Background(), distant.ID)
	require.NoError(t, err)
}

func TestSessionMonitor_NilNotifierDoesNotPanic(t *testing.T) {
	refreshRepo := newFakeRefreshTokenRepo()
	sessionStore := newFakeSessionStore()
	cfg := newTestConfig(0)
	cfg.SessionMonitor = &config.SessionMonitorConfig{Enabled: true, SweepInterval: time.Hour}

	monitor := NewSessionMonitor(SessionMonitorParams{
		RefreshTokenRepo: refreshRepo,
		SessionStore:     sessionStore,
		Inspector:        newFakeInspector(),
		Notifier:         nil,
		Config:           cfg,
		Logger:           newDiscardLogger(),
	})

	expired := &entity.RefreshToken{UserID: uuid.New(), TokenHash: "h", DeviceToken: "device", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, refreshRepo.CreateRefreshToken(context.Background(), expired))

	require.NoError(t, monitor.Start())
	assert.Eventually(t, func() bool { return refreshRepo.count() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, monitor.Stop())
}
