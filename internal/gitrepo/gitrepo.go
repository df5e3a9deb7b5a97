// Package gitrepo adapts a local git worktree to the SourceStore and
// Committer interfaces. Reads come from the working tree, writes are staged
// immediately, and Commit moves the staged changes onto a fix branch.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/editor"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
)

// BranchPrefix namespaces every branch this tool creates, so cleanup and
// branch protection rules can match on it.
const BranchPrefix = "cicd-agent-fix/"

// FixBranch returns the branch name for a run.
func FixBranch(runID string) string {
	return BranchPrefix + runID
}

// Repo wraps an opened git repository rooted at a local path.
type Repo struct {
	root   string
	repo   *git.Repository
	author config.GitConfig
	logger *zap.Logger
}

// Open opens the repository containing root. The path must be the worktree
// root, not a subdirectory.
func Open(root string, author config.GitConfig) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repo root: %w", err)
	}
	repo, err := git.PlainOpen(abs)
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", abs, err)
	}
	return &Repo{
		root:   abs,
		repo:   repo,
		author: author,
		logger: observability.GetLogger().Named("gitrepo"),
	}, nil
}

// ReadLines reads a worktree file and splits it with terminators preserved.
func (r *Repo) ReadLines(path string) ([]string, error) {
	full, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return editor.SplitLines(string(data)), nil
}

// WriteFile replaces a worktree file's content and stages it.
func (r *Repo) WriteFile(path, content string) error {
	full, err := r.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}
	if _, err := wt.Add(path); err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	r.logger.Debug("staged file", zap.String("path", path))
	return nil
}

// Commit creates branch at HEAD, carries the staged changes onto it, and
// commits them with the configured author identity.
func (r *Repo) Commit(ctx context.Context, branch, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}

	err = wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
		Keep:   true,
	})
	if err != nil {
		return "", fmt.Errorf("creating branch %s: %w", branch, err)
	}

	sha, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  r.author.AuthorName,
			Email: r.author.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("committing to %s: %w", branch, err)
	}

	r.logger.Info("committed fix branch",
		zap.String("branch", branch), zap.String("sha", sha.String()))
	return sha.String(), nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

// resolve joins a repo-relative path onto the root, rejecting escapes.
func (r *Repo) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("path %s must be repo-relative", path)
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes the repository", path)
	}
	return filepath.Join(r.root, clean), nil
}
