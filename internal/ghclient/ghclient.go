// Package ghclient opens pull requests for committed fix branches. It
// authenticates with either a personal access token or GitHub App
// credentials, rate limits outbound calls, and retries transient API
// failures.
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
)

// Client implements schemas.PRCreator against the GitHub REST API.
type Client struct {
	gh      *github.Client
	cfg     config.GitHubConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a client from the configuration. Token auth wins when both a
// token and App credentials are present; App auth exchanges a signed JWT for
// an installation token, which needs a network round trip.
func New(ctx context.Context, cfg config.GitHubConfig) (*Client, error) {
	token := cfg.Token
	if token == "" {
		installation, err := installationToken(ctx, cfg)
		if err != nil {
			return nil, err
		}
		token = installation
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		gh:      github.NewClient(nil).WithAuthToken(token),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  observability.GetLogger().Named("ghclient"),
	}, nil
}

// newWithClient exists for tests that inject a stub API client.
func newWithClient(gh *github.Client, cfg config.GitHubConfig) *Client {
	return &Client{
		gh:      gh,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  observability.GetLogger().Named("ghclient"),
	}
}

// CreatePullRequest opens a PR from branch into the configured base branch.
func (c *Client) CreatePullRequest(ctx context.Context, branch, title, body string) (*schemas.PRResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	base := c.cfg.BaseBranch
	if base == "" {
		base = "main"
	}

	newPR := &github.NewPullRequest{
		Title:               github.String(title),
		Head:                github.String(branch),
		Base:                github.String(base),
		Body:                github.String(body),
		MaintainerCanModify: github.Bool(true),
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute

	var pr *github.PullRequest
	operation := func() error {
		var resp *github.Response
		var err error
		pr, resp, err = c.gh.PullRequests.Create(ctx, c.cfg.RepoOwner, c.cfg.RepoName, newPR)
		if err == nil {
			return nil
		}
		if resp != nil {
			switch {
			case resp.StatusCode == http.StatusUnprocessableEntity:
				// Validation failure, e.g. a PR for this branch already exists.
				return backoff.Permanent(fmt.Errorf("github rejected the pull request: %w", err))
			case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
				c.logger.Warn("transient GitHub API error, retrying",
					zap.Int("status", resp.StatusCode), zap.Error(err))
				return err
			default:
				return backoff.Permanent(err)
			}
		}
		// No response means a network failure, worth retrying.
		c.logger.Warn("network error creating pull request, retrying", zap.Error(err))
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("creating pull request for %s: %w", branch, err)
	}

	result := &schemas.PRResult{
		Number: pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
		Branch: branch,
	}
	c.logger.Info("opened pull request",
		zap.Int("number", result.Number), zap.String("url", result.URL))
	return result, nil
}
