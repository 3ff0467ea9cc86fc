package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthService coordinates registration and login for ticket owners.
type AuthService struct {
	users      repository.UserRepository
	locations  repository.LocationRepository
	tokenMgr   *auth.TokenManager
	limiter    *auth.LoginLimiter
	bcryptCost int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	LocationRepo repository.LocationRepository
	Limiter      *auth.LoginLimiter
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		locations:  deps.LocationRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		limiter:    deps.Limiter,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new account. The optional location reference must point
// at a live location.
func (s *AuthService) Register(ctx context.Context, name, email, password string, locationID *string) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewValidationError("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	if locationID != nil && s.locations != nil {
		if _, err := s.locations.GetByID(ctx, *locationID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, "", time.Time{}, apperrors.NewValidationError("location not found", map[string]any{"location_id": *locationID})
			}
			return nil, "", time.Time{}, err
		}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
		LocationID:   locationID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// Login verifies credentials and issues a token. Repeated failures lock the
// account out for the limiter window.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	blocked, err := s.limiter.Blocked(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if blocked {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("too many failed attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = s.limiter.RecordFailure(ctx, email)
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		_ = s.limiter.RecordFailure(ctx, email)
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	_ = s.limiter.Reset(ctx, email)

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}
