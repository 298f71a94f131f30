package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"schoolhub/api/internal/apperrors"
	"schoolhub/api/internal/config"
	"schoolhub/api/internal/ids"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/rate"
	"schoolhub/api/internal/repository"
	"schoolhub/api/internal/security"
)

// UserStore and SessionStore are the persistence surfaces the auth flows
// depend on. The pgx repositories implement them; tests inject fakes.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Consume(ctx context.Context, userID string, refreshHash []byte) error
	DeleteByHash(ctx context.Context, userID string, refreshHash []byte) error
	DeleteAllByUser(ctx context.Context, userID string) error
}

// LoginLimiter throttles failed login attempts. Satisfied by rate.Limiter.
type LoginLimiter interface {
	CheckLogin(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email, ip string) error
}

type AuthService struct {
	users    UserStore
	sessions SessionStore
	limiter  LoginLimiter
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(users UserStore, sessions SessionStore, limiter LoginLimiter, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Role        models.UserRole
	Phone       string
	ParentEmail string
	LocationID  string
}

// Register creates an account in pending status. Admin-created accounts
// (adminCreated=true, reachable only through the admin user endpoint) start
// active and skip the approval step.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, adminCreated bool) (models.PublicUser, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.ParentEmail = strings.TrimSpace(strings.ToLower(input.ParentEmail))

	if input.Email == "" || input.Password == "" {
		return models.PublicUser{}, apperrors.Validation("email and password are required")
	}
	if len(input.Password) < 8 {
		return models.PublicUser{}, apperrors.Validation("password must be at least 8 characters")
	}
	if !models.ValidRole(input.Role) {
		return models.PublicUser{}, apperrors.Validation("role must be one of admin, teacher, student, parent")
	}
	if input.Role == models.UserRoleStudent && input.ParentEmail == "" {
		return models.PublicUser{}, apperrors.Validation("students must provide a parent email")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return models.PublicUser{}, apperrors.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.PublicUser{}, apperrors.Internal(err)
	}

	passwordHash, err := security.HashPassword(input.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		return models.PublicUser{}, apperrors.Internal(err)
	}

	status := models.UserStatusPending
	if adminCreated {
		status = models.UserStatusActive
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         input.Role,
		Status:       status,
	}
	if input.ParentEmail != "" {
		user.ParentEmail = &input.ParentEmail
	}
	if input.LocationID != "" {
		user.LocationID = &input.LocationID
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.PublicUser{}, apperrors.Conflict("email already registered")
		}
		return models.PublicUser{}, apperrors.Internal(err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user.Public(), nil
}

type LoginInput struct {
	Email    string
	Password string
	IP       string
}

type AuthResult struct {
	User         models.PublicUser
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if err := s.limiter.CheckLogin(ctx, input.Email, input.IP); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return AuthResult{}, apperrors.New(apperrors.KindRateLimited, "too many login attempts, try again later")
		}
		// A limiter outage must not lock everyone out.
		s.log.Warn().Err(err).Msg("login limiter check failed")
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.recordFailure(ctx, input.Email, input.IP)
			return AuthResult{}, apperrors.Authentication("invalid email or password")
		}
		return AuthResult{}, apperrors.Internal(err)
	}

	if !security.VerifyPassword(input.Password, user.PasswordHash) {
		s.recordFailure(ctx, input.Email, input.IP)
		return AuthResult{}, apperrors.Authentication("invalid email or password")
	}

	switch user.Status {
	case models.UserStatusActive:
	case models.UserStatusPending:
		return AuthResult{}, apperrors.Authorization("pending approval")
	default:
		return AuthResult{}, apperrors.Authorization("account not active")
	}

	if err := s.limiter.Reset(ctx, input.Email, input.IP); err != nil {
		s.log.Warn().Err(err).Msg("login limiter reset failed")
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed atomically, so replaying it after a successful exchange fails
// even under concurrent refresh calls.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	claims, err := security.ParseRefreshToken(refreshToken, s.cfg.Security.JWTRefreshSecret)
	if err != nil {
		return AuthResult{}, apperrors.Authentication("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperrors.Authentication("invalid refresh token")
		}
		return AuthResult{}, apperrors.Internal(err)
	}
	if user.Status != models.UserStatusActive {
		return AuthResult{}, apperrors.Authorization("account not active")
	}

	refreshHash := security.HashRefreshToken(refreshToken)
	if err := s.sessions.Consume(ctx, user.ID, refreshHash); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return AuthResult{}, apperrors.Authentication("invalid refresh token")
		}
		return AuthResult{}, apperrors.Internal(err)
	}

	return s.issueTokens(ctx, user)
}

// Logout removes the one session matching the presented refresh token.
// Unknown tokens are a no-op, so repeated logout calls stay idempotent.
func (s *AuthService) Logout(ctx context.Context, userID string, refreshToken string) error {
	refreshHash := security.HashRefreshToken(refreshToken)
	if err := s.sessions.DeleteByHash(ctx, userID, refreshHash); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// LogoutAll clears every session for the user. Already-issued access tokens
// stay valid until their own short expiry.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllByUser(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user models.User) (AuthResult, error) {
	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		user.Email,
		string(user.Role),
		string(user.Status),
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, apperrors.Internal(err)
	}

	refreshToken, err := security.GenerateRefreshToken(
		s.cfg.Security.JWTRefreshSecret,
		user.ID,
		s.cfg.Security.JWTRefreshTTL,
	)
	if err != nil {
		return AuthResult{}, apperrors.Internal(err)
	}

	now := time.Now()
	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		IssuedAt:         now,
		ExpiresAt:        now.Add(s.cfg.Security.JWTRefreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, apperrors.Internal(err)
	}

	return AuthResult{
		User:         user.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, ip string) {
	if err := s.limiter.RecordFailure(ctx, email, ip); err != nil {
		s.log.Warn().Err(err).Msg("login limiter record failed")
	}
}
