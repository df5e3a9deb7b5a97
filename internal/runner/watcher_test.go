package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendTrigger(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
}

func TestNewWatcherRequiresArtifactDir(t *testing.T) {
	cfg := newMockConfig()
	cfg.runner.ArtifactDir = ""

	_, err := NewWatcher(cfg, New(cfg, Deps{}))
	assert.ErrorContains(t, err, "artifact_dir")
}

func TestWatcherRunsOnTriggerEvent(t *testing.T) {
	dir := t.TempDir()
	triggerPath := filepath.Join(dir, TriggerFileName)
	// The trigger file must exist before tailing starts so the seek-to-end
	// position is stable.
	require.NoError(t, os.WriteFile(triggerPath, nil, 0o644))
	writeArtifact(t, dir, "rf-ruff-format.txt", formatDiff)

	repo := newFakeRepo(map[string]string{"app.py": "x=1\ny = 2\n"})
	cfg := newMockConfig()
	cfg.SetRunnerArtifactDir(dir)
	cfg.SetPlannerDryRun(true)

	w, err := NewWatcher(cfg, New(cfg, Deps{Source: repo, Committer: repo, LLM: &stubLLM{}}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Give the tail a moment to reach the end of the file.
	time.Sleep(200 * time.Millisecond)
	appendTrigger(t, triggerPath, "pipeline 4711 finished")

	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return false
		}
		for _, e := range entries {
			if !e.IsDir() && len(e.Name()) > 10 && e.Name()[:11] == "run-report-" {
				return true
			}
		}
		return false
	}, 10*time.Second, 50*time.Millisecond, "expected a run report to be written")
}

func TestWatcherCooldownSkipsBursts(t *testing.T) {
	dir := t.TempDir()
	cfg := newMockConfig()
	cfg.SetRunnerArtifactDir(dir)
	cfg.SetPlannerDryRun(true)

	repo := newFakeRepo(nil)
	w, err := NewWatcher(cfg, New(cfg, Deps{Source: repo, LLM: &stubLLM{}}))
	require.NoError(t, err)

	// First event runs, second lands inside the cooldown window.
	w.handleEvent(context.Background(), "pipeline 1 finished")
	first := w.lastRun
	require.False(t, first.IsZero())

	w.handleEvent(context.Background(), "pipeline 2 finished")
	assert.Equal(t, first, w.lastRun, "second event inside cooldown must not run")
}
