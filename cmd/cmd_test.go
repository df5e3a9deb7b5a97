// File: cmd/cmd_test.go
package cmd

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTempConfig helper
func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "test-config-*.yaml")
	require.NoError(t, err)
	_, err = tmpfile.Write([]byte(content))
	require.NoError(t, err)
	tmpfile.Close()
	return tmpfile.Name()
}

// resetViper gives each test an isolated viper state and restores the
// --config flag variable afterwards.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	prev := cfgFile
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = prev
	})
}

func TestInitializeConfigDefaults(t *testing.T) {
	resetViper(t)
	cfgFile = ""

	require.NoError(t, initializeConfig())

	assert.Equal(t, 0.75, viper.GetFloat64("planner.min_confidence"))
	assert.Equal(t, "ci-artifacts", viper.GetString("runner.artifact_dir"))
	assert.Equal(t, 7, viper.GetInt("window.default_lines"))
	assert.Equal(t, "main", viper.GetString("github.base_branch"))
}

func TestInitializeConfigEnvOverride(t *testing.T) {
	resetViper(t)
	cfgFile = ""
	t.Setenv("CICD_PLANNER_MIN_CONFIDENCE", "0.5")
	t.Setenv("CICD_RUNNER_REPO_ROOT", "/srv/checkout")

	require.NoError(t, initializeConfig())

	assert.Equal(t, 0.5, viper.GetFloat64("planner.min_confidence"))
	assert.Equal(t, "/srv/checkout", viper.GetString("runner.repo_root"))
}

func TestInitializeConfigFromFile(t *testing.T) {
	resetViper(t)
	cfgFile = createTempConfig(t, `
window:
  merge_gap: 4
planner:
  auto_apply_format_fixes: false
`)

	require.NoError(t, initializeConfig())

	assert.Equal(t, 4, viper.GetInt("window.merge_gap"))
	assert.False(t, viper.GetBool("planner.auto_apply_format_fixes"))
	// Untouched keys keep their defaults.
	assert.Equal(t, 3, viper.GetInt("planner.max_group_size"))
}

func TestInitializeConfigBadFile(t *testing.T) {
	resetViper(t)
	cfgFile = createTempConfig(t, "window: [not a mapping")

	err := initializeConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}
