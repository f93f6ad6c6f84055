package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/ats-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env

	c, err := config.New("")
	require.NoError(t, err)

	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8000", c.GetAPIBaseURL())
	require.Equal(t, 15*time.Second, c.GetHTTPTimeout())
	require.True(t, c.GetRotateRefreshTokens())
	require.Equal(t, config.SessionBackendFile, c.GetSessionBackend())
	require.Equal(t, "/custom_auth/login/", c.GetPaths().Login)
	require.Equal(t, "/custom_auth/token/refresh/", c.GetPaths().Refresh)
	require.Equal(t, "/dashboard/test-results/%s/", c.GetPaths().TestResults)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ATS_API_BASE_URL", "https://ats.example.com/")
	t.Setenv("ATS_ROTATE_REFRESH", "false")
	t.Setenv("ATS_SESSION_BACKEND", "redis")
	t.Setenv("ATS_HTTP_TIMEOUT", "3s")

	c, err := config.New("")
	require.NoError(t, err)

	require.Equal(t, "https://ats.example.com", c.GetAPIBaseURL())
	require.False(t, c.GetRotateRefreshTokens())
	require.Equal(t, config.SessionBackendRedis, c.GetSessionBackend())
	require.Equal(t, 3*time.Second, c.GetHTTPTimeout())
}

func TestNew_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "ats.yaml")
	err := os.WriteFile(path, []byte(`
api:
  base_url: http://api.internal:9000
  paths:
    login: /auth/login/
session:
  backend: sqlite
  sqlite_path: /tmp/ats.db
`), 0o600)
	require.NoError(t, err)

	c, err := config.New(path)
	require.NoError(t, err)

	require.Equal(t, "http://api.internal:9000", c.GetAPIBaseURL())
	require.Equal(t, "/auth/login/", c.GetPaths().Login)
	require.Equal(t, "/custom_auth/profile/", c.GetPaths().Profile)
	require.Equal(t, config.SessionBackendSQLite, c.GetSessionBackend())
	require.Equal(t, "/tmp/ats.db", c.GetSQLitePath())
}

func TestNew_MissingFile(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, ".ats", "session.json"), config.ExpandHome("~/.ats/session.json"))
	require.Equal(t, "/var/lib/ats", config.ExpandHome("/var/lib/ats"))
}
