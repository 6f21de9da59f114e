package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "ranger.db", c.DatabaseDSN)
	assert.Equal(t, StorageIPFS, c.StorageBackend)
	assert.True(t, c.UseRelay)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.False(t, c.RelayConfigured(), "no relay URL by default")
}

func TestParseEnv_Overlays(t *testing.T) {
	t.Setenv("RANGER_DATABASE_DSN", "/tmp/other.db")
	t.Setenv("RANGER_RELAY_URL", "https://relay.example")
	t.Setenv("RANGER_USE_RELAY", "false")
	t.Setenv("RANGER_STORAGE_BACKEND", "s3")
	t.Setenv("RANGER_ONLINE_CHECK_INTERVAL", "10s")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "/tmp/other.db", c.DatabaseDSN)
	assert.Equal(t, "https://relay.example", c.RelayURL)
	assert.True(t, c.RelayConfigured())
	assert.False(t, c.UseRelay)
	assert.Equal(t, StorageS3, c.StorageBackend)
	assert.Equal(t, 10*time.Second, c.OnlineCheckInterval)

	// untouched fields keep their defaults
	assert.Equal(t, "http://127.0.0.1:8545", c.ChainRPCAddr)
}

func TestParseEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("RANGER_USE_RELAY", "not-a-bool")
	t.Setenv("RANGER_ONLINE_CHECK_INTERVAL", "not-a-duration")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.True(t, c.UseRelay)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
}

func TestParseJson_Overlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"database_dsn": "/tmp/json.db",
		"relay_url": "https://relay.example",
		"use_relay": false,
		"online_check_interval": "7s"
	}`), 0o600))

	origArgs := os.Args
	os.Args = []string{"ranger", "-c", path}
	t.Cleanup(func() { os.Args = origArgs })

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, "/tmp/json.db", c.DatabaseDSN)
	assert.Equal(t, "https://relay.example", c.RelayURL)
	assert.False(t, c.UseRelay)
	assert.Equal(t, 7*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "keystore.json", c.KeystorePath, "missing fields untouched")
}

func TestParseFlags_Overlays(t *testing.T) {
	origArgs := os.Args
	os.Args = []string{"ranger", "-d", "/tmp/flag.db", "-i", "9"}
	t.Cleanup(func() { os.Args = origArgs })

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, "/tmp/flag.db", c.DatabaseDSN)
	assert.Equal(t, 9*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "http://127.0.0.1:8545", c.ChainRPCAddr)
}
