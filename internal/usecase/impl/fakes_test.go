package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eatsy/config"
	"eatsy/internal/domain/entity"
	"eatsy/internal/domain/repository"
	"eatsy/internal/domain/service"

	"github.com/google/uuid"
)

// In-memory fakes for the persistence and service interfaces. The generated
// mocks are not checked in, and the watchdog tests need stateful stores the
// sweep loop can mutate across iterations anyway.

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(maxActiveSessions int) *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:        12,
			MaxActiveSessions: maxActiveSessions,
		},
	}
}

// --- transaction manager -----------------------------------------------

type fakeRepoFactory struct {
	userRepo    *fakeUserRepo
	authRepo    *fakeAuthRepo
	refreshRepo *fakeRefreshTokenRepo
	dishRepo    *fakeDishRepo
	orderRepo   *fakeOrderRepo
}

func (f *fakeRepoFactory) NewUserRepository() repository.UserRepository { return f.userRepo }
func (f *fakeRepoFactory) NewAuthRepository() repository.AuthRepository { return f.authRepo }
func (f *fakeRepoFactory) NewRefreshTokenRepository() repository.RefreshTokenRepository {
	return f.refreshRepo
}
func (f *fakeRepoFactory) NewDishRepository() repository.DishRepository   { return f.dishRepo }
func (f *fakeRepoFactory) NewOrderRepository() repository.OrderRepository { return f.orderRepo }

type fakeTxManager struct {
	factory *fakeRepoFactory
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

// --- user repository ----------------------------------------------------

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user

	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user

	return nil
}

func (r *fakeUserRepo) ListCooks(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cooks := make([]*entity.User, 0, len(r.users))
	for _, user := range r.users {
		if user.CookProfile != nil {
			cooks = append(cooks, user)
		}
	}

	return cooks, nil
}

func (r *fakeUserRepo) AcquireSessionMutex(_ context.Context, _ uuid.UUID) error {
	return nil
}

// --- auth repository ----------------------------------------------------

type fakeAuthRepo struct {
	mu    sync.Mutex
	auths map[string]*entity.Authentication
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{auths: make(map[string]*entity.Authentication)}
}

func authKey(provider, providerUserID string) string {
	return provider + "/" + providerUserID
}

func (r *fakeAuthRepo) CreateAuthentication(_ context.Context, auth *entity.Authentication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if auth.ID == uuid.Nil {
		auth.ID = uuid.New()
	}
	r.auths[authKey(auth.Provider, auth.ProviderUserID)] = auth

	return nil
}

func (r *fakeAuthRepo) FindAuthentication(_ context.Context, provider, providerUserID string) (*entity.Authentication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	auth, ok := r.auths[authKey(provider, providerUserID)]
	if !ok {
		return nil, repository.ErrAuthNotFound
	}

	return auth, nil
}

// --- refresh token repository -------------------------------------------

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*entity.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[uuid.UUID]*entity.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) CreateRefreshToken(_ context.Context, token *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	r.tokens[token.ID] = token

	return nil
}

func (r *fakeRefreshTokenRepo) FindRefreshTokenByHash(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			if time.Now().After(token.ExpiresAt) {
				return nil, repository.ErrRefreshTokenExpired
			}

			return token, nil
		}
	}

	return nil, repository.ErrRefreshTokenNotFound
}

func (r *fakeRefreshTokenRepo) FindRefreshTokenByID(_ context.Context, id uuid.UUID) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}

	return token, nil
}

func (r *fakeRefreshTokenRepo) FindRefreshTokensByUserID(_ context.Context, userID uuid.UUID) ([]*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RefreshToken
	for _, token := range r.tokens {
		if token.UserID == userID {
			out = append(out, token)
		}
	}

	return out, nil
}

func (r *fakeRefreshTokenRepo) DeleteRefreshToken(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, id)

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteRefreshTokenByHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, token := range r.tokens {
		if token.TokenHash == tokenHash {
			delete(r.tokens, id)
		}
	}

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteRefreshTokensByUserID(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, id)
		}
	}

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpiredRefreshTokens(_ context.Context) ([]*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var expired []*entity.RefreshToken
	for id, token := range r.tokens {
		if now.After(token.ExpiresAt) {
			expired = append(expired, token)
			delete(r.tokens, id)
		}
	}

	return expired, nil
}

func (r *fakeRefreshTokenRepo) NextExpiry(_ context.Context) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var next time.Time
	found := false
	for _, token := range r.tokens {
		if !found || token.ExpiresAt.Before(next) {
			next = token.ExpiresAt
			found = true
		}
	}

	return next, found, nil
}

func (r *fakeRefreshTokenRepo) CountActiveSessionsByUserID(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	now := time.Now()
	for _, token := range r.tokens {
		if token.UserID == userID && token.ExpiresAt.After(now) {
			count++
		}
	}

	return count, nil
}

func (r *fakeRefreshTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tokens)
}

// --- session store ------------------------------------------------------

type fakeSessionStore struct {
	mu    sync.Mutex
	creds map[uuid.UUID]map[uuid.UUID]*entity.Credentials
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{creds: make(map[uuid.UUID]map[uuid.UUID]*entity.Credentials)}
}

func (s *fakeSessionStore) SaveCredentials(_ context.Context, userID, sessionID uuid.UUID, creds *entity.Credentials, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds[userID] == nil {
		s.creds[userID] = make(map[uuid.UUID]*entity.Credentials)
	}
	s.creds[userID][sessionID] = creds

	return nil
}

func (s *fakeSessionStore) FindCredentials(_ context.Context, userID, sessionID uuid.UUID) (*entity.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, ok := s.creds[userID][sessionID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	return creds, nil
}

func (s *fakeSessionStore) DeleteCredentials(_ context.Context, userID, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds[userID], sessionID)
	if len(s.creds[userID]) == 0 {
		delete(s.creds, userID)
	}

	return nil
}

func (s *fakeSessionStore) DeleteAllCredentials(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, userID)

	return nil
}

func (s *fakeSessionStore) ActiveUserIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.creds))
	for id := range s.creds {
		ids = append(ids, id)
	}

	return ids, nil
}

func (s *fakeSessionStore) has(userID, sessionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.creds[userID][sessionID]

	return ok
}

// --- cart repository ----------------------------------------------------

type fakeCartRepo struct {
	mu      sync.Mutex
	carts   map[uuid.UUID]*entity.Cart
	saveErr error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[uuid.UUID]*entity.Cart)}
}

func (r *fakeCartRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return entity.NewCart(), nil
	}

	return cart, nil
}

func (r *fakeCartRepo) Save(_ context.Context, userID uuid.UUID, cart *entity.Cart) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[userID] = cart

	return nil
}

func (r *fakeCartRepo) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)

	return nil
}

// --- dish repository ----------------------------------------------------

type fakeDishRepo struct {
	mu     sync.Mutex
	dishes map[uuid.UUID]*entity.Dish
}

func newFakeDishRepo() *fakeDishRepo {
	return &fakeDishRepo{dishes: make(map[uuid.UUID]*entity.Dish)}
}

func (r *fakeDishRepo) Create(_ context.Context, dish *entity.Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dish.ID == uuid.Nil {
		dish.ID = uuid.New()
	}
	r.dishes[dish.ID] = dish

	return nil
}

func (r *fakeDishRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dish, ok := r.dishes[id]
	if !ok {
		return nil, repository.ErrDishNotFound
	}

	return dish, nil
}

func (r *fakeDishRepo) List(_ context.Context, filter repository.DishListFilter) ([]*entity.Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Dish
	for _, dish := range r.dishes {
		if filter.CookID != uuid.Nil && dish.CookID != filter.CookID {
			continue
		}
		if filter.OnlyAvailable && !dish.Available {
			continue
		}
		if filter.Tag != "" && !containsTag(dish.Tags, filter.Tag) {
			continue
		}
		out = append(out, dish)
	}

	return out, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}

	return false
}

func (r *fakeDishRepo) Update(_ context.Context, dish *entity.Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dishes[dish.ID] = dish

	return nil
}

func (r *fakeDishRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dishes, id)

	return nil
}

// --- order repository ---------------------------------------------------

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*entity.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*entity.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	r.orders[order.ID] = order

	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}

	return order, nil
}

func (r *fakeOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}

	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status

	return nil
}

// --- auth services ------------------------------------------------------

type fakeHasher struct {
	strengthErr error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

func (h *fakeHasher) ValidatePasswordStrength(_ string) error {
	return h.strengthErr
}

type fakeTokenService struct {
	mu              sync.Mutex
	counter         int
	claims          map[string]*service.Claims
	refreshDuration time.Duration
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{
		claims:          make(map[string]*service.Claims),
		refreshDuration: time.Hour,
	}
}

func (s *fakeTokenService) GenerateTokens(userID uuid.UUID, roles []string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	accessToken := fmt.Sprintf("access-%d", s.counter)
	refreshToken := fmt.Sprintf("refresh-%d", s.counter)
	s.claims[accessToken] = &service.Claims{UserID: userID, Roles: roles, Type: service.TokenTypeAccess}
	s.claims[refreshToken] = &service.Claims{UserID: userID, Roles: roles, Type: service.TokenTypeRefresh}

	return accessToken, refreshToken, nil
}

func (s *fakeTokenService) ValidateToken(tokenString string) (*service.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, ok := s.claims[tokenString]
	if !ok {
		return nil, fmt.Errorf("unknown token %q", tokenString)
	}

	return claims, nil
}

func (s *fakeTokenService) HashToken(tokenString string) string {
	return "hash:" + tokenString
}

func (s *fakeTokenService) GetRefreshTokenDuration() time.Duration {
	return s.refreshDuration
}

type fakeInspector struct {
	mu      sync.Mutex
	invalid map[string]bool
}

func newFakeInspector() *fakeInspector {
	return &fakeInspector{invalid: make(map[string]bool)}
}

func (i *fakeInspector) markInvalid(token string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.invalid[token] = true
}

func (i *fakeInspector) IsValid(tokenString string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return !i.invalid[tokenString]
}

func (i *fakeInspector) ExpiresAt(_ string) (time.Time, bool) {
	return time.Time{}, false
}

// --- notification, events, qr codes -------------------------------------

type sentNotification struct {
	Token string
	Title string
	Data  map[string]string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) SendBatchNotification(_ context.Context, tokens []string, title, _ string, data map[string]string) (int, int, []string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, token := range tokens {
		n.sent = append(n.sent, sentNotification{Token: token, Title: title, Data: data})
	}

	return len(tokens), 0, nil, nil
}

func (n *fakeNotifier) SendSingleNotification(_ context.Context, token, title, _ string, data map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Token: token, Title: title, Data: data})

	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.sent)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*service.OrderEvent
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, event *service.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)

	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeQRCodeService struct{}

func (s *fakeQRCodeService) GeneratePickupQR(orderID uuid.UUID) ([]byte, error) {
	return []byte("qr:" + orderID.String()), nil
}

func (s *fakeQRCodeService) ParsePickupQR(qrData string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimPrefix(qrData, "qr:"))
}

type fakeImageStorage struct {
	mu   sync.Mutex
	keys []string
}

func (s *fakeImageStorage) Upload(_ context.Context, key, _ string, _ io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)

	return "https://cdn.example.com/" + key, nil
}

func (s *fakeImageStorage) Delete(_ context.Context, _ string) error { return nil }
