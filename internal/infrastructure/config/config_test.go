package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"MINEGOCIO_APP_NAME",
	"MINEGOCIO_APP_ENV",
	"MINEGOCIO_SERVER_PORT",
	"MINEGOCIO_DATABASE_DRIVER",
	"MINEGOCIO_DATABASE_HOST",
	"MINEGOCIO_DATABASE_PORT",
	"MINEGOCIO_DATABASE_PASSWORD",
	"MINEGOCIO_DATABASE_MAX_OPEN_CONNS",
	"MINEGOCIO_DATABASE_MAX_IDLE_CONNS",
	"MINEGOCIO_DATABASE_LOCK_TIMEOUT",
	"MINEGOCIO_JWT_SECRET",
	"MINEGOCIO_REDIS_ENABLED",
	"MINEGOCIO_CORS_ALLOW_ORIGINS",
	"MINEGOCIO_BOOTSTRAP_OWNER_EMAIL",
	"MINEGOCIO_BOOTSTRAP_OWNER_PASSWORD",
	"MINEGOCIO_TELEMETRY_SAMPLING_RATIO",
	"MINEGOCIO_TELEMETRY_PROFILING_ENABLED",
	"MINEGOCIO_TELEMETRY_PROFILING_SERVER_ADDRESS",
}

// clearConfigEnv blanks every key for the duration of the test
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "minegocio-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "minegocio", cfg.Database.DBName)
		assert.Equal(t, 3*time.Second, cfg.Database.LockTimeout)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 10*time.Minute, cfg.Redis.BusinessCacheTTL)
		assert.Empty(t, cfg.CORS.AllowOrigins)
		assert.False(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, "http://localhost:4040", cfg.Telemetry.ProfilingServerAddress)
	})

	t.Run("loads values from environment variables with MINEGOCIO prefix", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MINEGOCIO_APP_NAME", "tienda")
		t.Setenv("MINEGOCIO_SERVER_PORT", "9000")
		t.Setenv("MINEGOCIO_DATABASE_DRIVER", "sqlite")
		t.Setenv("MINEGOCIO_DATABASE_HOST", "db.local")
		t.Setenv("MINEGOCIO_DATABASE_PORT", "5433")
		t.Setenv("MINEGOCIO_DATABASE_LOCK_TIMEOUT", "500ms")
		t.Setenv("MINEGOCIO_REDIS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "tienda", cfg.App.Name)
		assert.Equal(t, "9000", cfg.Server.Port)
		assert.True(t, cfg.Database.IsSQLite())
		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 500*time.Millisecond, cfg.Database.LockTimeout)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MINEGOCIO_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MINEGOCIO_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("MINEGOCIO_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("owner email needs a password", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MINEGOCIO_BOOTSTRAP_OWNER_EMAIL", "owner@example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bootstrap.owner_password")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MINEGOCIO_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})

	t.Run("profiling toggle and server", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MINEGOCIO_TELEMETRY_PROFILING_ENABLED", "true")
		t.Setenv("MINEGOCIO_TELEMETRY_PROFILING_SERVER_ADDRESS", "http://pyroscope:4040")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, "http://pyroscope:4040", cfg.Telemetry.ProfilingServerAddress)

		t.Setenv("MINEGOCIO_TELEMETRY_PROFILING_SERVER_ADDRESS", "pyroscope:4040")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profiling_server_address")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MINEGOCIO_APP_ENV", "production")
		t.Setenv("MINEGOCIO_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("MINEGOCIO_DATABASE_PASSWORD", "secure-password")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
	})

	t.Run("refuses the default jwt secret", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("MINEGOCIO_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be set in production")
	})

	t.Run("requires a long jwt secret", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("MINEGOCIO_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires database.password", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("MINEGOCIO_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("refuses sqlite", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("MINEGOCIO_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite is not allowed")
	})

	t.Run("refuses wildcard origin", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("MINEGOCIO_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors.allow_origins")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
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
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
