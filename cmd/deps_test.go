// File: cmd/deps_test.go
package cmd

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
)

// depsTestConfig builds a validated config pointing at dir with a usable LLM
// section and optional extra keys.
func depsTestConfig(t *testing.T, dir string, extra map[string]any) config.Interface {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("runner.repo_root", dir)
	models := map[string]any{}
	for _, model := range []string{"gemini-2.5-flash", "gemini-2.5-pro"} {
		models[model] = map[string]any{
			"provider": "gemini",
			"model":    model,
			"api_key":  "test-key",
		}
	}
	v.Set("agent.llm.models", models)
	for key, val := range extra {
		v.Set(key, val)
	}
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestBuildRunnerDepsLocalOnly(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	cfg := depsTestConfig(t, dir, nil)

	deps, cleanup, err := buildRunnerDeps(context.Background(), cfg, &fakeStoreProvider{}, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.Source)
	assert.NotNil(t, deps.Committer)
	assert.NotNil(t, deps.LLM)
	assert.Nil(t, deps.PRs, "no GitHub credentials configured")
	assert.Nil(t, deps.Runs, "no database configured")
}

func TestBuildRunnerDepsMissingRepo(t *testing.T) {
	cfg := depsTestConfig(t, t.TempDir(), nil)

	_, cleanup, err := buildRunnerDeps(context.Background(), cfg, &fakeStoreProvider{}, zap.NewNop())
	defer cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open repository")
}

func TestBuildRunnerDepsStoreErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	cfg := depsTestConfig(t, dir, map[string]any{
		"database.url": "postgres://localhost/cicd",
	})
	provider := &fakeStoreProvider{err: fmt.Errorf("connection refused")}

	_, cleanup, err := buildRunnerDeps(context.Background(), cfg, provider, zap.NewNop())
	defer cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBuildRunnerDepsWiresRunStore(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	cfg := depsTestConfig(t, dir, map[string]any{
		"database.url": "postgres://localhost/cicd",
	})
	provider := &fakeStoreProvider{store: &fakeRunStore{}}

	deps, cleanup, err := buildRunnerDeps(context.Background(), cfg, provider, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.Runs)
}
