// File: internal/runner/watcher.go
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
)

// TriggerFileName is the event log the CI system appends to after it
// finishes writing a batch of artifacts. Each appended line triggers a run.
const TriggerFileName = "ci-events.log"

// Watcher tails the trigger file and launches a pipeline run per event,
// debounced by the configured cooldown so bursts of CI activity do not
// produce overlapping runs.
type Watcher struct {
	runner      *Runner
	cfg         config.Interface
	artifactDir string
	triggerPath string
	logger      *zap.Logger

	lastRun time.Time
}

func NewWatcher(cfg config.Interface, runner *Runner) (*Watcher, error) {
	dir := cfg.Runner().ArtifactDir
	if dir == "" {
		return nil, fmt.Errorf("runner.artifact_dir must be configured for watch mode")
	}
	return &Watcher{
		runner:      runner,
		cfg:         cfg,
		artifactDir: dir,
		triggerPath: filepath.Join(dir, TriggerFileName),
		logger:      observability.GetLogger().Named("watcher"),
	}, nil
}

// Start begins tailing the trigger file. It returns after starting the
// monitor goroutine; cancel ctx to stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("starting artifact watcher", zap.String("trigger", w.triggerPath))

	t, err := tail.TailFile(w.triggerPath, tail.Config{
		Follow: true,
		ReOpen: true,
		// Only events appended after startup matter.
		Location: &tail.SeekInfo{Offset: 0, Whence: 2},
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tailing trigger file: %w", err)
	}

	go w.loop(ctx, t)
	return nil
}

func (w *Watcher) loop(ctx context.Context, t *tail.Tail) {
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping")
			return
		case line, ok := <-t.Lines:
			if !ok {
				w.logger.Warn("trigger file tail closed")
				return
			}
			if line.Err != nil {
				w.logger.Warn("error reading trigger file", zap.Error(line.Err))
				continue
			}
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			w.handleEvent(ctx, line.Text)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event string) {
	cooldown := w.cfg.Runner().Cooldown
	if since := time.Since(w.lastRun); since < cooldown {
		w.logger.Info("event within cooldown, skipping",
			zap.String("event", event), zap.Duration("since_last_run", since))
		return
	}
	w.lastRun = time.Now()

	w.logger.Info("trigger event received", zap.String("event", event))
	report, err := w.runner.Run(ctx, w.artifactDir)
	if err != nil {
		w.logger.Error("triggered run failed", zap.Error(err))
		return
	}
	if path, err := WriteReport(report, w.artifactDir); err != nil {
		w.logger.Warn("cannot write run report", zap.Error(err))
	} else {
		w.logger.Info("run report written", zap.String("path", path))
	}
}
