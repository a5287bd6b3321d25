package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poold.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultConfig().TreeDepth, cfg.TreeDepth)
	require.FileExists(t, path)

	// Second load reads the file written by the first.
	cfg2, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg, cfg2)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.TreeDepth = 0
	require.Error(t, cfg.Validate())
	cfg.TreeDepth = 40
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ListenAddress = ""
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RateLimitBurst = 0
	require.Error(t, cfg.Validate())
}

func TestKeyPathsDependOnDepth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TreeDepth = 8
	pk8, vk8 := cfg.depositKeyPaths()
	cfg.TreeDepth = 16
	pk16, vk16 := cfg.depositKeyPaths()
	require.NotEqual(t, pk8, pk16)
	require.NotEqual(t, vk8, vk16)

	wpk, wvk := cfg.withdrawKeyPaths()
	require.NotEqual(t, pk16, wpk)
	require.NotEqual(t, vk16, wvk)
}
