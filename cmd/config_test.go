package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// GIVEN a directory without facmaker.yaml and no FACMAKER_* variables
	t.Chdir(t.TempDir())

	// WHEN the config is loaded
	c, err := LoadConfig("")

	// THEN the built-in defaults apply
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "", c.Log.File)
	assert.Equal(t, 100, c.Log.MaxSize)
	assert.True(t, c.Log.Compress)
	assert.Equal(t, int64(-1), c.Run.Horizon)
	assert.Equal(t, "none", c.Run.Trace)
	assert.Equal(t, "", c.Store.Path)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	// GIVEN a config file and environment overrides
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n  max_size: 20\nrun:\n  horizon: 10\n  trace: none\n"), 0o644))
	t.Setenv("FACMAKER_RUN_TRACE", "operations")
	t.Setenv("FACMAKER_LOG_MAX_SIZE", "5")

	// WHEN loaded
	c, err := LoadConfig(path)

	// THEN the environment wins over the file, which wins over defaults
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 5, c.Log.MaxSize)
	assert.Equal(t, int64(10), c.Run.Horizon)
	assert.Equal(t, "operations", c.Run.Trace)
	assert.Equal(t, 3, c.Log.MaxBackups)
}

func TestLoadConfig_ImplicitFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte("store:\n  path: runs.db\n"), 0o644))

	c, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, "runs.db", c.Store.Path)
}

func TestLoadConfig_InvalidValue_ReportsField(t *testing.T) {
	// GIVEN an unknown trace level in the environment
	t.Chdir(t.TempDir())
	t.Setenv("FACMAKER_RUN_TRACE", "verbose")

	// WHEN loaded
	_, err := LoadConfig("")

	// THEN validation names the field and the failed rule
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Run.Trace")
	assert.Contains(t, err.Error(), "oneof")
}

func TestLoadConfig_MissingFile_Fails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
