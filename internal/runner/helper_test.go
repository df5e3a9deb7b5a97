package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/editor"
)

// mockConfig is a partial config.Interface for runner tests.
type mockConfig struct {
	window  config.WindowConfig
	planner config.PlannerConfig
	runner  config.RunnerConfig
}

var _ config.Interface = (*mockConfig)(nil)

func newMockConfig() *mockConfig {
	return &mockConfig{
		window: config.WindowConfig{
			DefaultLines: 7,
			ContextLines: 20,
			MergeGap:     2,
			MaxFileBytes: 512_000,
		},
		planner: config.PlannerConfig{
			AutoApplyFormatFixes: true,
			MaxGroupSize:         3,
			MinConfidence:        0.75,
		},
		runner: config.RunnerConfig{
			RepoRoot:    ".",
			Concurrency: 2,
			Cooldown:    time.Minute,
		},
	}
}

func (m *mockConfig) Logger() config.LoggerConfig     { return config.LoggerConfig{} }
func (m *mockConfig) Database() config.DatabaseConfig { return config.DatabaseConfig{} }
func (m *mockConfig) Window() config.WindowConfig     { return m.window }
func (m *mockConfig) Planner() config.PlannerConfig   { return m.planner }
func (m *mockConfig) Agent() config.AgentConfig       { return config.AgentConfig{} }
func (m *mockConfig) Git() config.GitConfig           { return config.GitConfig{} }
func (m *mockConfig) GitHub() config.GitHubConfig     { return config.GitHubConfig{} }
func (m *mockConfig) Runner() config.RunnerConfig     { return m.runner }

func (m *mockConfig) SetRunnerConcurrency(n int)       { m.runner.Concurrency = n }
func (m *mockConfig) SetRunnerRepoRoot(root string)    { m.runner.RepoRoot = root }
func (m *mockConfig) SetRunnerArtifactDir(dir string)  { m.runner.ArtifactDir = dir }
func (m *mockConfig) SetWindowDefaultLines(n int)      { m.window.DefaultLines = n }
func (m *mockConfig) SetWindowUseTreeSitter(b bool)    { m.window.UseTreeSitter = b }
func (m *mockConfig) SetPlannerAutoApplyFormat(b bool) { m.planner.AutoApplyFormatFixes = b }
func (m *mockConfig) SetPlannerDryRun(b bool)          { m.planner.DryRun = b }

// fakeRepo is an in-memory SourceStore and Committer.
type fakeRepo struct {
	mu      sync.Mutex
	files   map[string]string
	commits []fakeCommit
}

type fakeCommit struct {
	branch  string
	message string
}

func newFakeRepo(files map[string]string) *fakeRepo {
	copied := make(map[string]string, len(files))
	for k, v := range files {
		copied[k] = v
	}
	return &fakeRepo{files: copied}
}

func (f *fakeRepo) ReadLines(path string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[path]
	if !ok {
		return nil, errors.New("no such file: " + path)
	}
	return editor.SplitLines(content), nil
}

func (f *fakeRepo) WriteFile(path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
	return nil
}

func (f *fakeRepo) Commit(_ context.Context, branch, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, fakeCommit{branch: branch, message: message})
	return "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", nil
}

type fakePRCreator struct {
	mu      sync.Mutex
	created []string
	err     error
}

func (f *fakePRCreator) CreatePullRequest(_ context.Context, branch, title, body string) (*schemas.PRResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, branch)
	return &schemas.PRResult{
		Number: len(f.created),
		URL:    "https://github.com/acme/backend/pull/1",
		Branch: branch,
	}, nil
}

type fakeRunStore struct {
	mu       sync.Mutex
	recorded []*schemas.RunReport
}

func (f *fakeRunStore) RecordRun(_ context.Context, report *schemas.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, report)
	return nil
}

func (f *fakeRunStore) GetRun(_ context.Context, runID string) (*schemas.RunReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recorded {
		if r.RunID == runID {
			return r, nil
		}
	}
	return nil, errors.New("run not found")
}

type stubLLM struct {
	mu    sync.Mutex
	resp  string
	err   error
	calls int
}

func (s *stubLLM) Generate(_ context.Context, _ schemas.GenerationRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.resp, s.err
}
