package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ParsesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiPort: 9090\nclusterEnabled: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.True(t, cfg.ClusterEnabled)
	assert.Equal(t, Default().DecayInterval, cfg.DecayInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiPort: 9090\n"), 0o644))

	t.Setenv("NOPEA_API_PORT", "7777")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.APIPort)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	cfg := NopeaConfig{APIPort: -1, K8sModule: "", AutoCanaryThreshold: 2, QueueCapacity: 0, DecayInterval: -1}
	err := cfg.Validate()
	require.Error(t, err)
	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(ve), 5)
}
