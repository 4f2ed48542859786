package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.AgentID = "agent-under-test"
	cfg.Webhook.Enabled = true
	cfg.Webhook.Port = 9999

	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "agent-under-test", loaded.AgentID)
	assert.True(t, loaded.Webhook.Enabled)
	assert.Equal(t, 9999, loaded.Webhook.Port)
}

func TestLoaderLoadWithoutFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	loader := NewLoader(path)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().AgentID, cfg.AgentID)
}

func TestLoaderEnvOverridesTakePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.json")
	loader := NewLoader(path)
	require.NoError(t, loader.Save(DefaultConfig()))

	t.Setenv("RUNTIME_AGENT_ID", "from-env")

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AgentID)
}

func TestGetConfigPathResolvesTildeHome(t *testing.T) {
	loader := NewLoader("~/custom.json")
	path := loader.GetConfigPath()
	assert.NotContains(t, path, "~")
	assert.Contains(t, path, "custom.json")
}
