package service

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"schoolhub/api/internal/apperrors"
	"schoolhub/api/internal/config"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/rate"
	"schoolhub/api/internal/repository"
	"schoolhub/api/internal/security"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (s *memUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *memUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *memUserStore) setStatus(id string, status models.UserStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[id]
	user.Status = status
	s.users[id] = user
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string][]models.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string][]models.Session)}
}

func (s *memSessionStore) Create(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = append(s.sessions[session.UserID], session)
	return nil
}

func (s *memSessionStore) Consume(_ context.Context, userID string, refreshHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.sessions[userID]
	for i, session := range list {
		if bytes.Equal(session.RefreshTokenHash, refreshHash) && session.ExpiresAt.After(time.Now()) {
			s.sessions[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return repository.ErrSessionNotFound
}

func (s *memSessionStore) DeleteByHash(_ context.Context, userID string, refreshHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.sessions[userID]
	for i, session := range list {
		if bytes.Equal(session.RefreshTokenHash, refreshHash) {
			s.sessions[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memSessionStore) DeleteAllByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *memSessionStore) count(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[userID])
}

type stubLimiter struct {
	limited  bool
	failures int
}

func (l *stubLimiter) CheckLogin(context.Context, string, string) error {
	if l.limited {
		return rate.ErrRateLimited
	}
	return nil
}

func (l *stubLimiter) RecordFailure(context.Context, string, string) error {
	l.failures++
	return nil
}

func (l *stubLimiter) Reset(context.Context, string, string) error { return nil }

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret:  "access-secret",
			JWTRefreshSecret: "refresh-secret",
			JWTAccessTTL:     time.Minute,
			JWTRefreshTTL:    time.Hour,
			BcryptCost:       4, // min cost keeps the suite fast
		},
	}
}

func newTestAuthService() (*AuthService, *memUserStore, *memSessionStore, *stubLimiter) {
	users := newMemUserStore()
	sessions := newMemSessionStore()
	limiter := &stubLimiter{}
	svc := NewAuthService(users, sessions, limiter, testConfig(), zerolog.Nop())
	return svc, users, sessions, limiter
}

func registerActive(t *testing.T, svc *AuthService, users *memUserStore, email string, role models.UserRole) models.PublicUser {
	t.Helper()
	input := RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "password123",
		Role:      role,
	}
	if role == models.UserRoleStudent {
		input.ParentEmail = "parent@x.com"
	}
	user, err := svc.Register(context.Background(), input, false)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	users.setStatus(user.ID, models.UserStatusActive)
	return user
}

func TestRegisterStudentRequiresParentEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Password:  "password123",
		Role:      models.UserRoleStudent,
	}, false)
	if apperrors.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v (%d)", err, apperrors.Status(err))
	}

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName:   "A",
		LastName:    "B",
		Email:       "a@x.com",
		Password:    "password123",
		Role:        models.UserRoleStudent,
		ParentEmail: "parent@x.com",
	}, false)
	if err != nil {
		t.Fatalf("register with parent email: %v", err)
	}
	if user.Status != string(models.UserStatusPending) {
		t.Fatalf("expected pending status, got %s", user.Status)
	}
}

func TestRegisterInvalidRole(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Password:  "password123",
		Role:      "headmaster",
	}, false)
	if apperrors.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	input := RegisterInput{
		FirstName: "A",
		LastName:  "B",
		Email:     "dup@x.com",
		Password:  "password123",
		Role:      models.UserRoleTeacher,
	}
	if _, err := svc.Register(context.Background(), input, false); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), input, false)
	if apperrors.Status(err) != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestAdminCreatedUserStartsActive(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "A",
		LastName:  "B",
		Email:     "staff@x.com",
		Password:  "password123",
		Role:      models.UserRoleTeacher,
	}, true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Status != string(models.UserStatusActive) {
		t.Fatalf("expected active, got %s", user.Status)
	}
}

func TestLoginBeforeApprovalForbidden(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	if _, err := svc.Register(context.Background(), RegisterInput{
		FirstName:   "A",
		LastName:    "B",
		Email:       "s@x.com",
		Password:    "password123",
		Role:        models.UserRoleStudent,
		ParentEmail: "p@x.com",
	}, false); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "s@x.com", Password: "password123"})
	if apperrors.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 before approval, got %v", err)
	}
}

func TestLoginIssuesVerifiableTokenPair(t *testing.T) {
	svc, users, sessions, _ := newTestAuthService()
	user := registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)

	result, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := security.ParseAccessToken(result.AccessToken, "access-secret")
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != string(models.UserRoleTeacher) {
		t.Fatalf("unexpected access claims: %+v", claims)
	}

	refreshClaims, err := security.ParseRefreshToken(result.RefreshToken, "refresh-secret")
	if err != nil {
		t.Fatalf("refresh token does not verify: %v", err)
	}
	if refreshClaims.UserID != user.ID {
		t.Fatalf("unexpected refresh claims: %+v", refreshClaims)
	}

	if sessions.count(user.ID) != 1 {
		t.Fatalf("expected one session, got %d", sessions.count(user.ID))
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc, users, _, limiter := newTestAuthService()
	registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)

	_, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "wrong-password"})
	if apperrors.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %v", err)
	}

	_, err2 := svc.Login(context.Background(), LoginInput{Email: "nobody@x.com", Password: "password123"})
	if apperrors.Status(err2) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %v", err2)
	}

	// Unknown email and wrong password must be indistinguishable.
	if apperrors.ClientMessage(err) != apperrors.ClientMessage(err2) {
		t.Fatalf("credential errors differ: %q vs %q", apperrors.ClientMessage(err), apperrors.ClientMessage(err2))
	}

	if limiter.failures != 2 {
		t.Fatalf("expected 2 recorded failures, got %d", limiter.failures)
	}
}

func TestLoginRateLimited(t *testing.T) {
	svc, users, _, limiter := newTestAuthService()
	registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)
	limiter.limited = true

	_, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if apperrors.Status(err) != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	user := registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)
	users.setStatus(user.ID, models.UserStatusInactive)

	_, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if apperrors.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for inactive user, got %v", err)
	}
}

func TestRefreshRotationIsSingleUse(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)

	login, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), login.RefreshToken); apperrors.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 replaying consumed token, got %v", err)
	}

	if _, err := svc.Refresh(context.Background(), rotated.RefreshToken); err != nil {
		t.Fatalf("rotated token should refresh: %v", err)
	}
}

func TestRefreshGarbageToken(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	if _, err := svc.Refresh(context.Background(), "not-a-jwt"); apperrors.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRefreshDeactivatedUser(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	user := registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)

	login, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	users.setStatus(user.ID, models.UserStatusInactive)
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); apperrors.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated user, got %v", err)
	}
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)

	login, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Refresh(context.Background(), login.RefreshToken); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one refresh to win, got %d", successes)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, users, sessions, _ := newTestAuthService()
	user := registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)

	login, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), user.ID, login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(context.Background(), user.ID, login.RefreshToken); err != nil {
		t.Fatalf("repeated logout must be a no-op, got %v", err)
	}

	if sessions.count(user.ID) != 0 {
		t.Fatalf("expected no sessions after logout, got %d", sessions.count(user.ID))
	}
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); apperrors.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %v", err)
	}
}

func TestLogoutAllRevokesEveryDevice(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	user := registerActive(t, svc, users, "t@x.com", models.UserRoleTeacher)

	first, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(context.Background(), LoginInput{Email: "t@x.com", Password: "password123"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := svc.LogoutAll(context.Background(), user.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := svc.Refresh(context.Background(), token); apperrors.Status(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401 after logout-all, got %v", err)
		}
	}

	// Access tokens are stateless and ride out their own TTL.
	if _, err := security.ParseAccessToken(first.AccessToken, "access-secret"); err != nil {
		t.Fatalf("access token should stay verifiable until expiry: %v", err)
	}
}
