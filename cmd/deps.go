// File: cmd/deps.go
package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/ghclient"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/gitrepo"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/llmclient"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/runner"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/store"
)

// runStoreProvider defines an interface for components that can create a run
// store (schemas.RunStore). This abstraction is crucial for testing, as it
// allows for the injection of a mock store instead of a live database
// connection.
type runStoreProvider interface {
	// Create initializes and returns a schemas.RunStore, a cleanup function
	// to release resources, and an error if the creation fails.
	Create(ctx context.Context, cfg config.Interface) (schemas.RunStore, func(), error)
}

// defaultStoreProvider is the concrete implementation of runStoreProvider
// used in production. It establishes a real connection to PostgreSQL.
type defaultStoreProvider struct{}

// NewStoreProvider is a factory function that creates a new
// defaultStoreProvider.
func NewStoreProvider() runStoreProvider {
	return &defaultStoreProvider{}
}

// Create connects to the PostgreSQL database using the provided configuration,
// initializes the run store, and returns it along with a cleanup function
// to close the database connection pool.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (schemas.RunStore, func(), error) {
	if cfg.Database().URL == "" {
		return nil, nil, fmt.Errorf("database URL is not configured (CICD_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, cfg.Database().URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	runs, err := store.New(ctx, pool, observability.GetLogger())
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return runs, pool.Close, nil
}

// buildRunnerDeps wires the runner's collaborators from the resolved
// configuration. The run store and pull request client are optional: without
// a database URL the report stays on disk, and without GitHub credentials the
// pipeline stops after committing to the fix branch. The cleanup function is
// always safe to call.
func buildRunnerDeps(ctx context.Context, cfg config.Interface, provider runStoreProvider, logger *zap.Logger) (runner.Deps, func(), error) {
	noop := func() {}

	repo, err := gitrepo.Open(cfg.Runner().RepoRoot, cfg.Git())
	if err != nil {
		return runner.Deps{}, noop, fmt.Errorf("failed to open repository at %q: %w", cfg.Runner().RepoRoot, err)
	}

	llm, err := llmclient.NewClient(cfg.Agent(), logger)
	if err != nil {
		return runner.Deps{}, noop, fmt.Errorf("failed to build LLM client: %w", err)
	}

	deps := runner.Deps{
		Source:    repo,
		Committer: repo,
		LLM:       llm,
	}

	if cfg.GitHub().Enabled() {
		gh, err := ghclient.New(ctx, cfg.GitHub())
		if err != nil {
			return runner.Deps{}, noop, fmt.Errorf("failed to build GitHub client: %w", err)
		}
		deps.PRs = gh
	} else {
		logger.Info("GitHub is not configured, fixes stay on local branches")
	}

	if cfg.Database().URL != "" {
		runs, cleanup, err := provider.Create(ctx, cfg)
		if err != nil {
			return runner.Deps{}, noop, err
		}
		deps.Runs = runs
		return deps, cleanup, nil
	}

	return deps, noop, nil
}
