package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	req := require.New(t)
	cfg := Default()

	req.NotEmpty(cfg.ServerURL)
	req.Equal("info", cfg.LogLevel)
	req.NotZero(cfg.DialTimeout)
	req.Less(cfg.MinBackoff, cfg.MaxBackoff)
}

func TestUpdateFromOverwritesNonZero(t *testing.T) {
	req := require.New(t)

	cfg := Default()
	cfg.UpdateFrom(Config{User: "alice", DialTimeout: 3 * time.Second})

	req.Equal("alice", cfg.User)
	req.Equal(3*time.Second, cfg.DialTimeout)
	// Untouched fields keep their defaults.
	req.Equal(Default().ServerURL, cfg.ServerURL)
	req.Equal(Default().LogLevel, cfg.LogLevel)
}

func TestLoadWritesDefaultConfig(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, resolved, err := Load(nil, path)
	req.NoError(err)
	req.Equal(path, resolved)

	// The default file was materialized and round-trips the defaults.
	_, statErr := os.Stat(path)
	req.NoError(statErr)
	req.Equal(Default().ServerURL, cfg.ServerURL)
	req.Equal(Default().LogLevel, cfg.LogLevel)
}

func TestLoadReadsExistingConfig(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	req.NoError(os.WriteFile(path, []byte("server_url: ws://chat.example.com/cometd\nuser: alice\n"), 0o600))

	cfg, _, err := Load(nil, path)
	req.NoError(err)
	req.Equal("ws://chat.example.com/cometd", cfg.ServerURL)
	req.Equal("alice", cfg.User)
	// Unset keys fall back to defaults.
	req.Equal(Default().DialTimeout, cfg.DialTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	req.NoError(os.WriteFile(path, []byte("user: alice\n"), 0o600))
	t.Setenv("OORTCHAT_USER", "bob")

	cfg, _, err := Load(nil, path)
	req.NoError(err)
	req.Equal("bob", cfg.User)
}
