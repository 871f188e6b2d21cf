package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

// memoryTokenStore is an in-process TokenStore used in tests
type memoryTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{revoked: make(map[string]time.Duration)}
}

func (m *memoryTokenStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = ttl
	return nil
}

func (m *memoryTokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func registerRequest(username string) *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "correct-horse",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil, zap.NewNop())
	ctx := context.Background()

	user, err := auth.Register(ctx, registerRequest("jane"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	token, err := auth.Login(ctx, "JANE@example.com", "correct-horse")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestRegisterDuplicate(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil, zap.NewNop())
	ctx := context.Background()

	_, err := auth.Register(ctx, registerRequest("jane"))
	require.NoError(t, err)

	_, err = auth.Register(ctx, registerRequest("jane"))
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil, zap.NewNop())
	ctx := context.Background()

	_, err := auth.Register(ctx, registerRequest("jane"))
	require.NoError(t, err)

	_, err = auth.Login(ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	issuer := service.NewAuthService(db, "other-secret", time.Hour, nil, zap.NewNop())
	token, err := issuer.GenerateToken(1)
	require.NoError(t, err)

	auth := service.NewAuthService(db, "test-secret", time.Hour, nil, zap.NewNop())
	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = auth.ValidateToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	expired := service.NewAuthService(db, "test-secret", -time.Minute, nil, zap.NewNop())
	token, err = expired.GenerateToken(1)
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	store := newMemoryTokenStore()
	auth := service.NewAuthService(db, "test-secret", time.Hour, store, zap.NewNop())
	ctx := context.Background()

	token, err := auth.GenerateToken(7)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, claims))
	assert.Contains(t, store.revoked, claims.ID)
	assert.LessOrEqual(t, store.revoked[claims.ID], time.Hour)

	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	// A fresh token for the same user is unaffected.
	other, err := auth.GenerateToken(7)
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, other)
	assert.NoError(t, err)
}

func TestSetPassword(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil, zap.NewNop())
	ctx := context.Background()

	user, err := auth.Register(ctx, registerRequest("jane"))
	require.NoError(t, err)

	err = auth.SetPassword(ctx, user.ID, "wrong-password", "brand-new-pass")
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "current_password")

	require.NoError(t, auth.SetPassword(ctx, user.ID, "correct-horse", "brand-new-pass"))

	_, err = auth.Login(ctx, "jane@example.com", "correct-horse")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(ctx, "jane@example.com", "brand-new-pass")
	assert.NoError(t, err)
}

func TestLogoutWithRedisTokenStore(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	db := testhelpers.NewTestDB(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour, service.NewRedisTokenStore(client), zap.NewNop())
	ctx := context.Background()

	token, err := auth.GenerateToken(3)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, claims))

	ttl, err := client.TTL(ctx, "revoked_token:"+claims.ID).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Hour, "unexpected ttl %s", ttl)

	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
