package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"CRM_APP_NAME",
	"CRM_APP_ENV",
	"CRM_APP_PORT",
	"CRM_DATABASE_DRIVER",
	"CRM_DATABASE_HOST",
	"CRM_DATABASE_PORT",
	"CRM_DATABASE_PASSWORD",
	"CRM_DATABASE_DBNAME",
	"CRM_DATABASE_SSLMODE",
	"CRM_DATABASE_MAX_OPEN_CONNS",
	"CRM_DATABASE_MAX_IDLE_CONNS",
	"CRM_REDIS_HOST",
	"CRM_SESSION_SECRET",
	"CRM_SESSION_SECURE",
	"CRM_SESSION_SAME_SITE",
	"CRM_SESSION_MAX_AGE",
	"CRM_STORAGE_BUCKET",
	"CRM_STORAGE_ACCESS_KEY",
	"CRM_STORAGE_SECRET_KEY",
	"CRM_CONSISTENCY_MODE",
	"CRM_CONSISTENCY_RECONCILE_INTERVAL",
	"CRM_METRICS_ENABLED",
	"CRM_SWAGGER_ENABLED",
	"CRM_SWAGGER_REQUIRE_AUTH",
	"CRM_SWAGGER_ALLOWED_IPS",
}

// clearConfigEnv unsets every variable the tests touch and restores them afterwards
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		} else {
			t.Cleanup(func() { os.Unsetenv(k) })
		}
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "crm-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "crm", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "", cfg.Redis.Addr())
		assert.Equal(t, "crm_session", cfg.Session.CookieName)
		assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
		assert.Equal(t, "transactional", cfg.Consistency.Mode)
		assert.Zero(t, cfg.Consistency.ReconcileInterval)
		assert.Equal(t, 10*time.Minute, cfg.Consistency.ReconcileTimeout)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
		assert.True(t, cfg.Swagger.Enabled)
		assert.False(t, cfg.Swagger.RequireAuth)
		assert.False(t, cfg.Storage.Enabled())
		assert.False(t, cfg.OAuth.Enabled())
		assert.Equal(t, "http://localhost:8080/auth/google/callback", cfg.OAuth.RedirectURL)
	})

	t.Run("loads values from environment variables with CRM prefix", func(t *testing.T) {
		clearConfigEnv(t)
		os.Setenv("CRM_APP_NAME", "test-app")
		os.Setenv("CRM_APP_PORT", "9000")
		os.Setenv("CRM_DATABASE_HOST", "testdb.local")
		os.Setenv("CRM_DATABASE_PORT", "5433")
		os.Setenv("CRM_REDIS_HOST", "cache.local")
		os.Setenv("CRM_SESSION_MAX_AGE", "2h")
		os.Setenv("CRM_CONSISTENCY_MODE", "sequential")
		os.Setenv("CRM_METRICS_ENABLED", "false")
		os.Setenv("CRM_CONSISTENCY_RECONCILE_INTERVAL", "5m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, 2*time.Hour, cfg.Session.MaxAge)
		assert.Equal(t, "sequential", cfg.Consistency.Mode)
		assert.Equal(t, 5*time.Minute, cfg.Consistency.ReconcileInterval)
		assert.False(t, cfg.Metrics.Enabled)
		assert.Equal(t, "test-app", cfg.Telemetry.ServiceName)
	})

	t.Run("rejects unknown consistency mode", func(t *testing.T) {
		clearConfigEnv(t)
		os.Setenv("CRM_CONSISTENCY_MODE", "eventual")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "consistency.mode")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearConfigEnv(t)
		os.Setenv("CRM_DATABASE_DRIVER", "mongodb")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearConfigEnv(t)
		os.Setenv("CRM_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("CRM_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("storage bucket requires credentials", func(t *testing.T) {
		clearConfigEnv(t)
		os.Setenv("CRM_STORAGE_BUCKET", "crm-uploads")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key")
	})

	t.Run("same_site none requires secure cookie", func(t *testing.T) {
		clearConfigEnv(t)
		os.Setenv("CRM_SESSION_SAME_SITE", "none")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session.secure")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearConfigEnv(t)
		os.Setenv("CRM_APP_ENV", "production")
		os.Setenv("CRM_SESSION_SECRET", "this-is-a-very-secure-session-secret-32")
		os.Setenv("CRM_SESSION_SECURE", "true")
		os.Setenv("CRM_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CRM_DATABASE_SSLMODE", "require")
		os.Setenv("CRM_SWAGGER_REQUIRE_AUTH", "true")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires a long session secret", func(t *testing.T) {
		setValidProductionBase(t)
		os.Setenv("CRM_SESSION_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session.secret must be at least 32 characters")
	})

	t.Run("requires secure cookies", func(t *testing.T) {
		setValidProductionBase(t)
		os.Setenv("CRM_SESSION_SECURE", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session.secure must be true")
	})

	t.Run("requires database.password", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("CRM_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled", func(t *testing.T) {
		setValidProductionBase(t)
		os.Setenv("CRM_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires protected swagger", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("CRM_SWAGGER_REQUIRE_AUTH")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled")
	})

	t.Run("accepts swagger restricted by IP", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("CRM_SWAGGER_REQUIRE_AUTH")
		os.Setenv("CRM_SWAGGER_ALLOWED_IPS", "10.0.0.0/8")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Swagger.AllowedIPs)
	})

	t.Run("accepts disabled swagger", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("CRM_SWAGGER_REQUIRE_AUTH")
		os.Setenv("CRM_SWAGGER_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Swagger.Enabled)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", DBName: "crm.db"}

		assert.Equal(t, "crm.db", cfg.DSN())
	})
}
