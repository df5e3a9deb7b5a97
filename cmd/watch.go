// File: cmd/watch.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/runner"
)

// newWatchCmd creates the `watch` command, which tails the CI trigger log and
// starts a pipeline run for every appended event line.
func newWatchCmd() *cobra.Command {
	var artifactsDir string

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the artifact directory and run the pipeline on each CI event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			if cmd.Flags().Changed("artifacts-dir") {
				cfg.SetRunnerArtifactDir(artifactsDir)
			}

			deps, cleanup, err := buildRunnerDeps(ctx, cfg, NewStoreProvider(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			w, err := runner.NewWatcher(cfg, runner.New(cfg, deps))
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}

			logger.Info("Watching for CI events",
				zap.String("artifact_dir", cfg.Runner().ArtifactDir),
				zap.String("trigger", runner.TriggerFileName),
			)

			// Block until the signal context is cancelled.
			<-ctx.Done()
			logger.Info("Shutting down watcher")
			return nil
		},
	}

	watchCmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "", "directory holding CI artifacts (defaults to runner.artifact_dir)")
	return watchCmd
}
