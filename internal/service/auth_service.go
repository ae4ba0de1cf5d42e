package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pomboexe/support-desk/internal/auth"
	"github.com/pomboexe/support-desk/internal/config"
	"github.com/pomboexe/support-desk/internal/domain"
	"github.com/pomboexe/support-desk/internal/repository"
	apperrors "github.com/pomboexe/support-desk/pkg/util"
)

// RegisterInput describes a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      domain.UserRole
}

// Session is an issued session token with its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows. Failed logins are
// throttled per email through Redis; when Redis is down the throttle fails
// open so authentication keeps working.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	redis      *redis.Client
	logger     *zap.Logger
	bcryptCost int
	maxLogins  int
	window     time.Duration
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Redis    *redis.Client
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		redis:      deps.Redis,
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		maxLogins:  cfg.Auth.LoginMaxAttempts,
		window:     time.Duration(cfg.Auth.LoginWindowMinutes) * time.Minute,
	}
}

// Register creates a new account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, nil, apperrors.NewValidationError("email and password required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	session, err := s.openSession(user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login authenticates an account and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if blocked := s.loginThrottled(ctx, email); blocked {
		return nil, nil, apperrors.NewDomainError("RATE_LIMITED", "too many login attempts", 429, nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.recordFailedLogin(ctx, email)
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordFailedLogin(ctx, email)
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	session, err := s.openSession(user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// GetUser resolves an account by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) openSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) loginThrottled(ctx context.Context, email string) bool {
	if s.redis == nil || s.maxLogins <= 0 {
		return false
	}
	count, err := s.redis.Get(ctx, loginAttemptKey(email)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("login throttle read failed", zap.Error(err))
		}
		return false
	}
	return count >= s.maxLogins
}

func (s *AuthService) recordFailedLogin(ctx context.Context, email string) {
	if s.redis == nil || s.maxLogins <= 0 {
		return
	}
	key := loginAttemptKey(email)
	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Warn("login throttle write failed", zap.Error(err))
		return
	}
	if count == 1 {
		s.redis.Expire(ctx, key, s.window)
	}
}

func loginAttemptKey(email string) string {
	return fmt.Sprintf("login_attempts:%s", email)
}
