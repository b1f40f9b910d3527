package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
storage:
  driver: postgres
  dsn: postgres://localhost/rows
transport:
  mode: http
auth:
  enabled: true
session:
  ttl: 2m
`), 0o600))
	t.Setenv("DRAWBRIDGE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "postgres://localhost/rows", cfg.Storage.DSN)
	require.Equal(t, TransportHTTP, cfg.Transport.Mode)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, 2*time.Minute, cfg.Session.TTL)
	require.Equal(t, "drawbridge.db", cfg.DB.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	t.Setenv("DRAWBRIDGE_CONFIG_PATH", path)
	t.Setenv("DRAWBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("DRAWBRIDGE_DB_PATH", "/tmp/meta.db")
	t.Setenv("DRAWBRIDGE_SERVER_PORT", "7000")
	t.Setenv("DRAWBRIDGE_SESSION_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/tmp/meta.db", cfg.DB.Path)
	require.Equal(t, 7000, cfg.Server.Port)
	require.Equal(t, 90*time.Second, cfg.Session.TTL)
}

func TestLoad_InvalidEnv(t *testing.T) {
	cases := map[string]string{
		"DRAWBRIDGE_SERVER_PORT":    "eighty",
		"DRAWBRIDGE_AUTH_ENABLED":   "maybe",
		"DRAWBRIDGE_SESSION_TTL":    "soon",
		"DRAWBRIDGE_TRANSPORT_MODE": "carrier-pigeon",
		"DRAWBRIDGE_STORAGE_DRIVER": "mysql",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("DRAWBRIDGE_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}

func TestLoad_NormalizesStorageDriver(t *testing.T) {
	t.Setenv("DRAWBRIDGE_STORAGE_DRIVER", " SQLite ")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestValidate_StorageSharesMetadata(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		driver  string
		meta    string
		dsn     string
		wantErr bool
	}{
		{"same file", "sqlite", filepath.Join(dir, "a.db"), filepath.Join(dir, "a.db"), true},
		{"file uri", "SQLite", filepath.Join(dir, "a.db"), "file:" + filepath.Join(dir, "a.db") + "?_pragma=busy_timeout(5000)", true},
		{"different files", "sqlite", filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db"), false},
		{"both in memory", "sqlite", ":memory:", ":memory:", false},
		{"postgres", "postgres", filepath.Join(dir, "a.db"), filepath.Join(dir, "a.db"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.Driver = tc.driver
			cfg.DB.Path = tc.meta
			cfg.Storage.DSN = tc.dsn
			err := cfg.Validate()
			if tc.wantErr {
				require.ErrorContains(t, err, "metadata database")
				return
			}
			require.NoError(t, err)
		})
	}
}
