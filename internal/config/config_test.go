package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/ha-memory-server/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := config.New(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, ":8099", cfg.GetPort())
	require.True(t, cfg.GetOAuthEnabled())
	require.Equal(t, time.Hour, cfg.GetDefaultAccessTokenExpiry())
	require.Equal(t, 10*time.Minute, cfg.GetAuthCodeTimeout())
	require.False(t, cfg.GetAPIKeyEnabled())
	require.Equal(t, config.BackendFile, cfg.GetStorageBackend())
	require.Equal(t, 30*time.Second, cfg.GetMemoryServiceTimeout())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("*"))
}

func TestNew_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("OAUTH_ENABLED", "false")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "5")
	t.Setenv("API_KEY_ENABLED", "true")
	t.Setenv("API_KEY", "k-123")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local")

	cfg, err := config.New(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.GetPort())
	require.False(t, cfg.GetOAuthEnabled())
	require.Equal(t, 5*time.Minute, cfg.GetDefaultAccessTokenExpiry())
	require.True(t, cfg.GetAPIKeyEnabled())
	require.Equal(t, "k-123", cfg.GetAPIKey())
	require.Equal(t, config.BackendMemory, cfg.GetStorageBackend())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("http://b.local"))
	require.False(t, cfg.GetAllowedOrigins().IsAllowedOrigin("*"))
}

func TestNew_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AUTH_CODE_TTL_MINUTES=3\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("AUTH_CODE_TTL_MINUTES") })

	cfg, err := config.New(path)
	require.NoError(t, err)
	require.Equal(t, 3*time.Minute, cfg.GetAuthCodeTimeout())
}

func TestValues_Validate(t *testing.T) {
	t.Run("api key enabled without key", func(t *testing.T) {
		v := config.Defaults()
		v.APIKeyEnabled = true
		_, err := config.FromValues(v)
		require.Error(t, err)
		require.Contains(t, err.Error(), "API_KEY")
	})

	t.Run("non positive ttl", func(t *testing.T) {
		v := config.Defaults()
		v.AccessTokenTTLMinutes = 0
		_, err := config.FromValues(v)
		require.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		v := config.Defaults()
		v.Backend = "cassandra"
		_, err := config.FromValues(v)
		require.Error(t, err)
	})

	t.Run("remote without url", func(t *testing.T) {
		v := config.Defaults()
		v.Backend = config.BackendRemote
		_, err := config.FromValues(v)
		require.Error(t, err)
	})
}
