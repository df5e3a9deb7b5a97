// File: internal/runner/runner.go
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/editor"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/gitrepo"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/orchestrator"
)

// Deps are the runner's collaborators. Committer, PRs, and Runs are
// optional: a nil Committer (with DryRun) skips writes, a nil PRs skips pull
// requests, a nil Runs keeps reports on disk only.
type Deps struct {
	Source    schemas.SourceStore
	Committer schemas.Committer
	PRs       schemas.PRCreator
	Runs      schemas.RunStore
	LLM       schemas.LLMClient
}

// Runner executes one full pipeline pass per Run call.
type Runner struct {
	cfg    config.Interface
	deps   Deps
	logger *zap.Logger
}

func New(cfg config.Interface, deps Deps) *Runner {
	return &Runner{
		cfg:    cfg,
		deps:   deps,
		logger: observability.GetLogger().Named("runner"),
	}
}

// Run processes every artifact in artifactsDir and returns the report. The
// report is returned even when some groups fail; the error is reserved for
// faults that stop the run entirely.
func (r *Runner) Run(ctx context.Context, artifactsDir string) (*schemas.RunReport, error) {
	runID := uuid.NewString()[:8]
	report := newReport(runID)
	log := r.logger.With(zap.String("run_id", runID))

	files, err := discoverArtifacts(artifactsDir)
	if err != nil {
		return nil, err
	}
	report.ArtifactCount = len(files)
	log.Info("discovered artifacts", zap.Int("count", len(files)))

	allSignals, err := r.parseAll(ctx, files, log)
	if err != nil {
		return nil, err
	}
	countSignals(report, allSignals)

	if len(allSignals) == 0 {
		log.Info("no signals found, nothing to do")
		finishReport(report)
		return report, r.record(ctx, report)
	}

	prioritizer := orchestrator.NewPrioritizer(r.cfg.Planner().MaxGroupSize)
	groups := prioritizer.Prioritize(allSignals)
	log.Info("prioritized signal groups",
		zap.Int("signals", len(allSignals)), zap.Int("groups", len(groups)))

	builder := orchestrator.NewContextBuilder(r.deps.Source, r.cfg.Window())
	planner := orchestrator.NewPlanner(r.deps.LLM, builder, r.cfg.Planner())

	changedFiles := make(map[string]bool)
	for i, group := range groups {
		outcome := r.processGroup(ctx, planner, group, runID, i, changedFiles, log)
		report.GroupOutcomes = append(report.GroupOutcomes, outcome)
		if outcome.Error != "" {
			report.Failures++
		}
		if outcome.PR != nil {
			report.PRsOpened++
		}
	}
	report.FilesChanged = len(changedFiles)

	finishReport(report)
	log.Info("run complete",
		zap.Int("groups", len(groups)),
		zap.Int("prs_opened", report.PRsOpened),
		zap.Int("failures", report.Failures),
		zap.Duration("duration", report.Duration()))
	return report, r.record(ctx, report)
}

// parseAll parses artifacts concurrently, bounded by the configured worker
// count, and flattens the results in discovery order.
func (r *Runner) parseAll(ctx context.Context, files []string, log *zap.Logger) ([]schemas.FixSignal, error) {
	results := make([][]schemas.FixSignal, len(files))
	var mu sync.Mutex
	var parseErrs []error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Runner().Concurrency, 1))

	for i, path := range files {
		kind := routeArtifact(path)
		if kind == parserNone {
			log.Debug("skipping artifact, no matching parser", zap.String("path", path))
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sigs, err := parseArtifact(path, kind, r.cfg.Runner().RepoRoot)
			if err != nil {
				// A malformed artifact degrades the run, it does not stop it.
				log.Warn("artifact parse error",
					zap.String("path", path), zap.String("parser", string(kind)), zap.Error(err))
				mu.Lock()
				parseErrs = append(parseErrs, err)
				mu.Unlock()
			}
			results[i] = sigs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []schemas.FixSignal
	for _, sigs := range results {
		all = append(all, sigs...)
	}
	if len(parseErrs) > 0 {
		log.Warn("some artifacts were malformed", zap.Int("count", len(parseErrs)))
	}
	return all, nil
}

// processGroup plans, applies, commits, and opens the PR for one group.
// All failure modes end up in the outcome's Error field.
func (r *Runner) processGroup(ctx context.Context, planner *orchestrator.Planner,
	group schemas.SignalGroup, runID string, idx int,
	changedFiles map[string]bool, log *zap.Logger) schemas.GroupOutcome {

	outcome := schemas.GroupOutcome{
		Tool:        group.Tool,
		Type:        group.Type,
		SignalCount: len(group.Signals),
	}
	glog := log.With(
		zap.Int("group", idx+1),
		zap.String("tool", group.Tool),
		zap.String("type", string(group.Type)))

	plan, err := planner.CreateFixPlan(ctx, group)
	if err != nil {
		outcome.Error = fmt.Sprintf("planning: %v", err)
		glog.Error("fix plan failed", zap.Error(err))
		return outcome
	}
	if plan == nil {
		glog.Info("group skipped entirely")
		return outcome
	}
	outcome.UsedLLM = !(group.Type == schemas.SignalFormat && r.cfg.Planner().AutoApplyFormatFixes)

	if plan.Confidence < r.cfg.Planner().MinConfidence {
		outcome.Error = fmt.Sprintf("confidence %.2f below threshold %.2f",
			plan.Confidence, r.cfg.Planner().MinConfidence)
		glog.Warn("plan below confidence threshold", zap.Float64("confidence", plan.Confidence))
		return outcome
	}
	if len(plan.FileEdits) == 0 {
		glog.Info("plan contains no edits")
		return outcome
	}

	applied, err := r.applyPlan(plan)
	if err != nil {
		outcome.Error = fmt.Sprintf("applying: %v", err)
		glog.Error("apply failed", zap.Error(err))
		return outcome
	}
	outcome.Applied = true
	for _, f := range applied {
		changedFiles[f] = true
	}

	if r.cfg.Planner().DryRun {
		glog.Info("dry run, skipping commit and PR", zap.Strings("files", applied))
		return outcome
	}

	branch := gitrepo.FixBranch(fmt.Sprintf("%s-%d", runID, idx+1))
	sha, err := r.deps.Committer.Commit(ctx, branch, commitMessage(plan))
	if err != nil {
		outcome.Error = fmt.Sprintf("committing: %v", err)
		glog.Error("commit failed", zap.Error(err))
		return outcome
	}
	glog.Info("committed", zap.String("branch", branch), zap.String("sha", sha))

	if r.deps.PRs == nil {
		return outcome
	}
	pr, err := r.deps.PRs.CreatePullRequest(ctx, branch, prTitle(plan), prBody(plan, group))
	if err != nil {
		outcome.Error = fmt.Sprintf("opening PR: %v", err)
		glog.Error("PR creation failed", zap.Error(err))
		return outcome
	}
	outcome.PR = pr
	glog.Info("pull request opened", zap.String("url", pr.URL))
	return outcome
}

// applyPlan applies every file's edit batch and writes the result. The batch
// either fully applies or the file is left untouched; an error on any file
// aborts the remaining ones.
func (r *Runner) applyPlan(plan *schemas.FixPlan) ([]string, error) {
	var applied []string
	for _, fe := range plan.FileEdits {
		lines, err := r.deps.Source.ReadLines(fe.FilePath)
		if err != nil {
			return applied, fmt.Errorf("reading %s: %w", fe.FilePath, err)
		}
		newLines, err := editor.Apply(lines, fe.Edits)
		if err != nil {
			return applied, fmt.Errorf("editing %s: %w", fe.FilePath, err)
		}
		content := strings.Join(newLines, "")
		if content == strings.Join(lines, "") {
			// Edits that change nothing are not worth a commit.
			continue
		}
		if !r.cfg.Planner().DryRun {
			if err := r.deps.Committer.WriteFile(fe.FilePath, content); err != nil {
				return applied, fmt.Errorf("writing %s: %w", fe.FilePath, err)
			}
		}
		applied = append(applied, fe.FilePath)
	}
	return applied, nil
}

func (r *Runner) record(ctx context.Context, report *schemas.RunReport) error {
	if r.deps.Runs == nil {
		return nil
	}
	if err := r.deps.Runs.RecordRun(ctx, report); err != nil {
		return fmt.Errorf("recording run %s: %w", report.RunID, err)
	}
	return nil
}
