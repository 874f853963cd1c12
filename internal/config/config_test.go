package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, EnvDev, c.App.Env)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Empty(t, c.Storage.DSN)
	require.False(t, c.Rate.Enabled)
	require.Equal(t, "info", c.Log.Level)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: dev
server:
  addr: ":9000"
storage:
  dsn: postgres://yaml-host/db
jwt:
  secret: from-yaml
`), 0o600))

	t.Setenv("STORAGE_DSN", "postgres://env-host/db")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", c.Server.Addr)
	// env pisa yaml
	require.Equal(t, "postgres://env-host/db", c.Storage.DSN)
	require.Equal(t, "from-yaml", c.JWT.Secret)
}

func TestValidate(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("bad env", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		t.Setenv("APP_ENV", "staging")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("prod requires long secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "short")
		t.Setenv("APP_ENV", "prod")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("rate enabled requires redis", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		t.Setenv("RATE_ENABLED", "true")
		_, err := Load("")
		require.Error(t, err)
	})
}

func TestIsProd(t *testing.T) {
	require.True(t, EnvProd.IsProd())
	require.False(t, EnvDev.IsProd())
}
