package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0x6", cfg.ClockID)
	assert.Equal(t, "0x8", cfg.RandomID)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Empty(t, cfg.Key, "no signing key by default")
	assert.NotEmpty(t, cfg.PackageID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SUILOTTO_RPC_URL", "http://localhost:9000")
	t.Setenv("SUILOTTO_POLL_INTERVAL", "3s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.RPCURL)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
}
