package impl

import (
	"context"
	"testing"

	"eatsy/internal/domain/entity"
	domainerrors "eatsy/internal/domain/errors"
	"eatsy/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userServiceFixture struct {
	service      usecase.UserUsecase
	userRepo     *fakeUserRepo
	authRepo     *fakeAuthRepo
	refreshRepo  *fakeRefreshTokenRepo
	sessionStore *fakeSessionStore
	hasher       *fakeHasher
	tokenService *fakeTokenService
}

func newUserServiceFixture(maxActiveSessions int) *userServiceFixture {
	userRepo := newFakeUserRepo()
	authRepo := newFakeAuthRepo()
	refreshRepo := newFakeRefreshTokenRepo()
	sessionStore := newFakeSessionStore()
	hasher := &fakeHasher{}
	tokenService := newFakeTokenService()
	factory := &fakeRepoFactory{
		userRepo:    userRepo,
		authRepo:    authRepo,
		refreshRepo: refreshRepo,
		dishRepo:    newFakeDishRepo(),
		orderRepo:   newFakeOrderRepo(),
	}

	return &userServiceFixture{
		service: NewUserService(UserServiceParams{
			TxManager:        &fakeTxManager{factory: factory},
			UserRepo:         userRepo,
			AuthRepo:         authRepo,
			RefreshTokenRepo: refreshRepo,
			SessionStore:     sessionStore,
			Hasher:           hasher,
			TokenService:     tokenService,
			Config:           newTestConfig(maxActiveSessions),
			Logger:           newDiscardLogger(),
		}),
		userRepo:     userRepo,
		authRepo:     authRepo,
		refreshRepo:  refreshRepo,
		sessionStore: sessionStore,
		hasher:       hasher,
		tokenService: tokenService,
	}
}

func (f *userServiceFixture) registerCustomer(t *testing.T, email, password string) *entity.User {
	t.Helper()
	output, err := f.service.RegisterCustomer(context.Background(), &usecase.RegisterCustomerInput{
		Name:           "測試顧客",
		Email:          email,
		Password:       password,
		DefaultAddress: "台北市信義區",
	})
	require.NoError(t, err)

	return output.User
}

func TestUserService_RegisterCustomer_NewAccount(t *testing.T) {
	fixture := newUserServiceFixture(0)

	user := fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	require.NotNil(t, user.CustomerProfile)
	assert.Equal(t, "台北市信義區", user.CustomerProfile.DefaultAddress)
	assert.Nil(t, user.CookProfile)

	// The password credential is stored hashed, never raw.
	auth, err := fixture.authRepo.FindAuthentication(context.Background(), entity.ProviderTypeEmail, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hashed:Str0ngPass!", auth.PasswordHash)
}

func TestUserService_RegisterCook_AttachesProfileToExistingAccount(t *testing.T) {
	fixture := newUserServiceFixture(0)
	customer := fixture.registerCustomer(t, "bob@example.com", "Str0ngPass!")

	output, err := fixture.service.RegisterCook(context.Background(), &usecase.RegisterCookInput{
		Name:        "測試廚師",
		Email:       "bob@example.com",
		Password:    "Str0ngPass!",
		KitchenName: "巷口廚房",
		Latitude:    25.03,
		Longitude:   121.56,
	})

	require.NoError(t, err)
	assert.Equal(t, customer.ID, output.User.ID)
	require.NotNil(t, output.User.CookProfile)
	assert.Equal(t, "巷口廚房", output.User.CookProfile.KitchenName)
	require.NotNil(t, output.User.CustomerProfile)
	assert.ElementsMatch(t, entity.Roles{entity.RoleCustomer, entity.RoleCook}, output.User.Roles())
}

func TestUserService_RegisterCook_WrongPasswordOnExistingAccount(t *testing.T) {
	fixture := newUserServiceFixture(0)
	fixture.registerCustomer(t, "bob@example.com", "Str0ngPass!")

	_, err := fixture.service.RegisterCook(context.Background(), &usecase.RegisterCookInput{
		Email:       "bob@example.com",
		Password:    "wrong-password",
		KitchenName: "巷口廚房",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestUserService_RegisterCustomer_DuplicateProfile(t *testing.T) {
	fixture := newUserServiceFixture(0)
	fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")

	_, err := fixture.service.RegisterCustomer(context.Background(), &usecase.RegisterCustomerInput{
		Email:    "alice@example.com",
		Password: "Str0ngPass!",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
}

func TestUserService_RegisterCustomer_WeakPasswordRejected(t *testing.T) {
	fixture := newUserServiceFixture(0)
	fixture.hasher.strengthErr = domainerrors.ErrPasswordStrength

	_, err := fixture.service.RegisterCustomer(context.Background(), &usecase.RegisterCustomerInput{
		Email:    "weak@example.com",
		Password: "123",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)

	// Nothing persisted on rejection.
	_, err = fixture.userRepo.FindByEmail(context.Background(), "weak@example.com")
	require.Error(t, err)
}

func TestUserService_Login_Success(t *testing.T) {
	fixture := newUserServiceFixture(0)
	user := fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")

	output, err := fixture.service.Login(context.Background(), &usecase.LoginInput{
		Email:       "alice@example.com",
		Password:    "Str0ngPass!",
		DeviceToken: "fcm-token-1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, output.AccessToken)
	assert.NotEmpty(t, output.RefreshToken)
	assert.NotEqual(t, uuid.Nil, output.SessionID)
	assert.Equal(t, user.ID, output.User.ID)

	// A session row exists carrying the device token.
	session, err := fixture.refreshRepo.FindRefreshTokenByID(context.Background(), output.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "fcm-token-1", session.DeviceToken)
	assert.Equal(t, "hash:"+output.RefreshToken, session.TokenHash)

	// Credentials are mirrored for the watchdog.
	creds, err := fixture.sessionStore.FindCredentials(context.Background(), user.ID, output.SessionID)
	require.NoError(t, err)
	assert.Equal(t, output.AccessToken, creds.AccessToken)
	assert.Equal(t, output.RefreshToken, creds.RefreshToken)
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	fixture := newUserServiceFixture(0)

	_, err := fixture.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "ghost@example.com",
		Password: "whatever",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	fixture := newUserServiceFixture(0)
	fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")

	_, err := fixture.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestUserService_Login_SessionLimitExceeded(t *testing.T) {
	fixture := newUserServiceFixture(2)
	fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")
	input := &usecase.LoginInput{Email: "alice@example.com", Password: "Str0ngPass!"}

	_, err := fixture.service.Login(context.Background(), input)
	require.NoError(t, err)
	_, err = fixture.service.Login(context.Background(), input)
	require.NoError(t, err)

	_, err = fixture.service.Login(context.Background(), input)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrSessionLimitExceeded)
	assert.Equal(t, 2, fixture.refreshRepo.count())
}

func TestUserService_RefreshToken_IssuesNewAccessTokenOnly(t *testing.T) {
	fixture := newUserServiceFixture(0)
	user := fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")
	login, err := fixture.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "Str0ngPass!",
	})
	require.NoError(t, err)

	output, err := fixture.service.RefreshToken(context.Background(), &usecase.RefreshTokenInput{
		RefreshToken: login.RefreshToken,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, output.AccessToken)
	assert.NotEqual(t, login.AccessToken, output.AccessToken)

	// The refresh token itself is not rotated: the original hash still resolves.
	session, err := fixture.refreshRepo.FindRefreshTokenByHash(context.Background(), "hash:"+login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.SessionID, session.ID)

	// The mirrored credentials carry the newest access token.
	creds, err := fixture.sessionStore.FindCredentials(context.Background(), user.ID, login.SessionID)
	require.NoError(t, err)
	assert.Equal(t, output.AccessToken, creds.AccessToken)
	assert.Equal(t, login.RefreshToken, creds.RefreshToken)
}

func TestUserService_RefreshToken_RejectsAccessToken(t *testing.T) {
	fixture := newUserServiceFixture(0)
	fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")
	login, err := fixture.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "Str0ngPass!",
	})
	require.NoError(t, err)

	_, err = fixture.service.RefreshToken(context.Background(), &usecase.RefreshTokenInput{
		RefreshToken: login.AccessToken,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestUserService_RefreshToken_UnknownToken(t *testing.T) {
	fixture := newUserServiceFixture(0)

	_, err := fixture.service.RefreshToken(context.Background(), &usecase.RefreshTokenInput{
		RefreshToken: "forged-token",
	})

	require.Error(t, err)
}

func TestUserService_Logout_RemovesSessionAndCredentials(t *testing.T) {
	fixture := newUserServiceFixture(0)
	user := fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")
	login, err := fixture.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "Str0ngPass!",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(context.Background(), &usecase.LogoutInput{
		RefreshToken: login.RefreshToken,
	}))

	_, err = fixture.refreshRepo.FindRefreshTokenByID(context.Background(), login.SessionID)
	require.Error(t, err)
	assert.False(t, fixture.sessionStore.has(user.ID, login.SessionID))
}

func TestUserService_Logout_UnknownTokenIsTolerated(t *testing.T) {
	fixture := newUserServiceFixture(0)

	err := fixture.service.Logout(context.Background(), &usecase.LogoutInput{
		RefreshToken: "already-gone",
	})

	require.NoError(t, err)
}

func TestUserService_LogoutAllDevices(t *testing.T) {
	fixture := newUserServiceFixture(0)
	user := fixture.registerCustomer(t, "alice@example.com", "Str0ngPass!")
	input := &usecase.LoginInput{Email: "alice@example.com", Password: "Str0ngPass!"}
	_, err := fixture.service.Login(context.Background(), input)
	require.NoError(t, err)
	_, err = fixture.service.Login(context.Background(), input)
	require.NoError(t, err)

	require.NoError(t, fixture.service.LogoutAllDevices(context.Background(), user.ID))

	assert.Equal(t, 0, fixture.refreshRepo.count())
	ids, err := fixture.sessionStore.ActiveUserIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	fixture := newUserServiceFixture(0)

	_, err := fixture.service.GetProfile(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}
