package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fan-platform/internal/repository"
)

func newAuthFixture(t *testing.T) AuthService {
	t.Helper()
	db := setupTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), "test-secret", time.Minute, 1000)
}

func TestRegisterGrantsSignupPoints(t *testing.T) {
	svc := newAuthFixture(t)

	user, err := svc.Register(context.Background(), "alice", "password123", "alice@example.com")
	require.NoError(t, err)
	assert.InDelta(t, 1000, user.FreePoints, 1e-9)
	assert.NotEqual(t, "password123", user.HashedPassword)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "password123", "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other", "fresh@example.com")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, "bob", "other", "alice@example.com")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// empty email is not subject to the uniqueness check
	_, err = svc.Register(ctx, "carol", "other", "")
	assert.NoError(t, err)
	_, err = svc.Register(ctx, "dave", "other", "")
	assert.NoError(t, err)
}

func TestLoginRoundTrip(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "password123", "")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := svc.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "password123", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserFromTokenRejectsForgedAndExpired(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	svc := NewAuthService(users, "test-secret", time.Minute, 1000)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "password123", "")
	require.NoError(t, err)

	_, err = svc.UserFromToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// token signed with a different secret
	forger := NewAuthService(users, "other-secret", time.Minute, 1000)
	forged, err := forger.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	_, err = svc.UserFromToken(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// token already past its TTL
	stale := NewAuthService(users, "test-secret", -time.Minute, 1000)
	expired, err := stale.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	_, err = svc.UserFromToken(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAddPointsCreditsWallet(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "password123", "")
	require.NoError(t, err)

	topped, err := svc.AddPoints(ctx, user.ID, 500)
	require.NoError(t, err)
	assert.InDelta(t, 1500, topped.FreePoints, 1e-9)
}
