package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func newAuthFixture(t *testing.T) (*AuthService, *memUserRepo, *memLocationRepo) {
	t.Helper()
	users := newMemUserRepo()
	locations := newMemLocationRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
	}
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: users, LocationRepo: locations})
	return svc, users, locations
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	user, token, expiresAt, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret!", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)

	logged, token, _, err := svc.Login(ctx, "alice@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret!", nil)
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, "Other Alice", "alice@example.com", "different", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestAuthRegisterValidatesLocation(t *testing.T) {
	svc, _, locations := newAuthFixture(t)
	ctx := context.Background()

	missing := "b7f8a1f6-6f5e-4cbe-9e53-3a1c51a54a01"
	_, _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret!", &missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location not found")

	loc := &domain.Location{Name: "Kigali", Level: 1}
	require.NoError(t, locations.Create(ctx, loc))

	user, _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret!", &loc.ID)
	require.NoError(t, err)
	require.NotNil(t, user.LocationID)
	assert.Equal(t, loc.ID, *user.LocationID)
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret!", nil)
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")

	_, _, _, err = svc.Login(ctx, "nobody@example.com", "s3cret!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthLoginRejectsSuspendedAccount(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()

	user, _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret!", nil)
	require.NoError(t, err)

	user.Status = domain.UserStatusSuspended
	require.NoError(t, users.Update(ctx, user))

	_, _, _, err = svc.Login(ctx, "alice@example.com", "s3cret!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account suspended")
}
