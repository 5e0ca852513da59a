package integration

import (
	"context"
	"testing"
	"time"

	identityapp "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// startRedis runs a throwaway Redis container and returns its address
func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate Redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return config.RedisConfig{Host: host, Port: port.Int()}
}

func TestRedisSessionStore(t *testing.T) {
	redisCfg := startRedis(t)
	ctx := context.Background()

	store, err := cache.NewSessionStoreFactory(redisCfg, cache.WithInMemoryFallback(false)).CreateStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.IsType(t, &cache.RedisSessionStore{}, store)

	t.Run("round trip", func(t *testing.T) {
		session := identity.NewSession(uuid.New(), time.Now(), time.Minute)
		require.NoError(t, store.Save(ctx, session))

		got, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.UserID, got.UserID)
		assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)

		require.NoError(t, store.Delete(ctx, session.ID))
		_, err = store.Get(ctx, session.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("expires with its TTL", func(t *testing.T) {
		session := identity.NewSession(uuid.New(), time.Now(), time.Second)
		require.NoError(t, store.Save(ctx, session))

		assert.Eventually(t, func() bool {
			_, err := store.Get(ctx, session.ID)
			return err != nil
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("deleting an unknown session is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "missing"))
	})
}

type stubProvider struct {
	profile identity.GoogleProfile
}

func (p stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (p stubProvider) Exchange(context.Context, string) (identity.GoogleProfile, error) {
	return p.profile, nil
}

// TestAuthFlow_PostgresAndRedis signs in twice with the same Google account:
// the user row is created once and each login gets its own Redis session.
func TestAuthFlow_PostgresAndRedis(t *testing.T) {
	db := NewSharedTestDB(t)
	redisCfg := startRedis(t)
	ctx := context.Background()

	store, err := cache.NewSessionStoreFactory(redisCfg, cache.WithInMemoryFallback(false)).CreateStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sessionCfg := config.SessionConfig{Secret: "integration-secret-at-least-32-bytes", MaxAge: time.Hour}
	service := identityapp.NewAuthService(
		persistence.NewGormUserRepository(db.DB),
		store,
		stubProvider{profile: identity.GoogleProfile{Subject: "google-42", Name: "Dana", Email: "dana@example.com"}},
		auth.NewSessionTokenService(sessionCfg),
		identityapp.AuthServiceConfig{SessionTTL: sessionCfg.MaxAge},
		zaptest.NewLogger(t),
	)

	first, err := service.CompleteLogin(ctx, "code-1")
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := service.CompleteLogin(ctx, "code-2")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEqual(t, first.Token, second.Token)

	user, err := service.CurrentUser(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, "google-42", user.GoogleID)

	require.NoError(t, service.Logout(ctx, first.Token))
	_, err = service.CurrentUser(ctx, first.Token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = service.CurrentUser(ctx, second.Token)
	assert.NoError(t, err, "other sessions stay valid")

	var count int64
	require.NoError(t, db.DB.Table("users").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
