// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/runner"
)

// newRunCmd creates and configures the `run` command, which executes a single
// pipeline pass over a directory of CI artifacts.
func newRunCmd() *cobra.Command {
	var (
		artifactsDir string
		repoRoot     string
		concurrency  int
		dryRun       bool
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Process CI artifacts once and open fix pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from Execute (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Flags override whatever the config file and environment
			// resolved to, matching standard precedence.
			if cmd.Flags().Changed("repo-root") {
				cfg.SetRunnerRepoRoot(repoRoot)
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.SetRunnerConcurrency(concurrency)
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.SetPlannerDryRun(dryRun)
			}
			if cmd.Flags().Changed("artifacts-dir") {
				cfg.SetRunnerArtifactDir(artifactsDir)
			}

			deps, cleanup, err := buildRunnerDeps(ctx, cfg, NewStoreProvider(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			r := runner.New(cfg, deps)
			report, err := r.Run(ctx, cfg.Runner().ArtifactDir)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			path, err := runner.WriteReport(report, cfg.Runner().ArtifactDir)
			if err != nil {
				logger.Warn("Failed to write run report", zap.Error(err))
			} else {
				logger.Info("Run report written", zap.String("path", path))
			}

			signals := 0
			for _, n := range report.SignalCounts {
				signals += n
			}
			logger.Info("Run complete",
				zap.String("runID", report.RunID),
				zap.Int("signals", signals),
				zap.Int("files_changed", report.FilesChanged),
				zap.Int("prs_opened", report.PRsOpened),
				zap.Int("failures", report.Failures),
			)

			if report.Failures > 0 {
				return fmt.Errorf("%d group(s) failed, see %s", report.Failures, path)
			}
			return nil
		},
	}

	runCmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "", "directory holding CI artifacts (defaults to runner.artifact_dir)")
	runCmd.Flags().StringVar(&repoRoot, "repo-root", "", "root of the repository to fix (defaults to runner.repo_root)")
	runCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of artifacts parsed in parallel")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan fixes without writing, committing or opening PRs")
	return runCmd
}
