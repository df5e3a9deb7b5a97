// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Window() WindowConfig
	Planner() PlannerConfig
	Agent() AgentConfig
	Git() GitConfig
	GitHub() GitHubConfig
	Runner() RunnerConfig

	// Runner setters, driven by CLI flags.
	SetRunnerConcurrency(int)
	SetRunnerRepoRoot(string)
	SetRunnerArtifactDir(string)

	// Window setters
	SetWindowDefaultLines(int)
	SetWindowUseTreeSitter(bool)

	// Planner setters
	SetPlannerAutoApplyFormat(bool)
	SetPlannerDryRun(bool)
}

// Config holds the entire application configuration. It uses private fields
// to enforce access through the Interface's getter methods.
type Config struct {
	logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	database DatabaseConfig `mapstructure:"database" yaml:"database"`
	window   WindowConfig   `mapstructure:"window" yaml:"window"`
	planner  PlannerConfig  `mapstructure:"planner" yaml:"planner"`
	agent    AgentConfig    `mapstructure:"agent" yaml:"agent"`
	git      GitConfig      `mapstructure:"git" yaml:"git"`
	github   GitHubConfig   `mapstructure:"github" yaml:"github"`
	runner   RunnerConfig   `mapstructure:"runner" yaml:"runner"`
}

func (c *Config) Logger() LoggerConfig     { return c.logger }
func (c *Config) Database() DatabaseConfig { return c.database }
func (c *Config) Window() WindowConfig     { return c.window }
func (c *Config) Planner() PlannerConfig   { return c.planner }
func (c *Config) Agent() AgentConfig       { return c.agent }
func (c *Config) Git() GitConfig           { return c.git }
func (c *Config) GitHub() GitHubConfig     { return c.github }
func (c *Config) Runner() RunnerConfig     { return c.runner }

func (c *Config) SetRunnerConcurrency(n int)       { c.runner.Concurrency = n }
func (c *Config) SetRunnerRepoRoot(root string)    { c.runner.RepoRoot = root }
func (c *Config) SetRunnerArtifactDir(dir string)  { c.runner.ArtifactDir = dir }
func (c *Config) SetWindowDefaultLines(n int)      { c.window.DefaultLines = n }
func (c *Config) SetWindowUseTreeSitter(b bool)    { c.window.UseTreeSitter = b }
func (c *Config) SetPlannerAutoApplyFormat(b bool) { c.planner.AutoApplyFormatFixes = b }
func (c *Config) SetPlannerDryRun(b bool)          { c.planner.DryRun = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the run-history database connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// WindowConfig tunes context extraction around diagnostics.
type WindowConfig struct {
	DefaultLines  int  `mapstructure:"default_lines" yaml:"default_lines"`
	ContextLines  int  `mapstructure:"context_lines" yaml:"context_lines"`
	MergeGap      int  `mapstructure:"merge_gap" yaml:"merge_gap"`
	MaxFileBytes  int  `mapstructure:"max_file_bytes" yaml:"max_file_bytes"`
	UseTreeSitter bool `mapstructure:"use_tree_sitter" yaml:"use_tree_sitter"`
}

// PlannerConfig controls how signal groups become fix plans.
type PlannerConfig struct {
	AutoApplyFormatFixes bool    `mapstructure:"auto_apply_format_fixes" yaml:"auto_apply_format_fixes"`
	MaxGroupSize         int     `mapstructure:"max_group_size" yaml:"max_group_size"`
	MinConfidence        float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	DebugContextDir      string  `mapstructure:"debug_context_dir" yaml:"debug_context_dir"`
	DryRun               bool    `mapstructure:"dry_run" yaml:"dry_run"`
}

// GitConfig defines the committer identity.
type GitConfig struct {
	AuthorName  string `mapstructure:"author_name" yaml:"author_name"`
	AuthorEmail string `mapstructure:"author_email" yaml:"author_email"`
}

// GitHubConfig defines the configuration for GitHub integration. Either a
// personal token or a GitHub App key pair can be supplied; the App pair wins
// when both are present.
type GitHubConfig struct {
	Token             string  `mapstructure:"token" yaml:"-"`
	AppID             int64   `mapstructure:"app_id" yaml:"app_id"`
	InstallationID    int64   `mapstructure:"installation_id" yaml:"installation_id"`
	PrivateKeyPath    string  `mapstructure:"private_key_path" yaml:"private_key_path"`
	RepoOwner         string  `mapstructure:"repo_owner" yaml:"repo_owner"`
	RepoName          string  `mapstructure:"repo_name" yaml:"repo_name"`
	BaseBranch        string  `mapstructure:"base_branch" yaml:"base_branch"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// Enabled reports whether PR creation is configured at all.
func (g GitHubConfig) Enabled() bool {
	return g.RepoOwner != "" && g.RepoName != ""
}

// RunnerConfig drives artifact ingestion and per-file application.
type RunnerConfig struct {
	RepoRoot        string        `mapstructure:"repo_root" yaml:"repo_root"`
	ArtifactDir     string        `mapstructure:"artifact_dir" yaml:"artifact_dir"`
	Concurrency     int           `mapstructure:"concurrency" yaml:"concurrency"`
	Cooldown        time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
	KeepFailedPlans bool          `mapstructure:"keep_failed_plans" yaml:"keep_failed_plans"`
}

// AgentConfig holds settings related to the fix-generation agent.
type AgentConfig struct {
	LLM LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderOllama LLMProvider = "ollama"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// fileConfig mirrors Config with exported fields so viper can populate it;
// Config itself keeps private fields to force access through the getters.
type fileConfig struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Database DatabaseConfig `mapstructure:"database"`
	Window   WindowConfig   `mapstructure:"window"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Git      GitConfig      `mapstructure:"git"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Runner   RunnerConfig   `mapstructure:"runner"`
}

func (f fileConfig) toConfig() *Config {
	return &Config{
		logger:   f.Logger,
		database: f.Database,
		window:   f.Window,
		planner:  f.Planner,
		agent:    f.Agent,
		git:      f.Git,
		github:   f.GitHub,
		runner:   f.Runner,
	}
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return fc.toConfig()
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "cicd-assistant")
	v.SetDefault("logger.log_file", "cicd-assistant.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Window --
	v.SetDefault("window.default_lines", 7)
	v.SetDefault("window.context_lines", 20)
	v.SetDefault("window.merge_gap", 2)
	v.SetDefault("window.max_file_bytes", 512_000)
	v.SetDefault("window.use_tree_sitter", false)

	// -- Planner --
	v.SetDefault("planner.auto_apply_format_fixes", true)
	v.SetDefault("planner.max_group_size", 3)
	v.SetDefault("planner.min_confidence", 0.75)
	v.SetDefault("planner.dry_run", false)

	// -- Runner --
	v.SetDefault("runner.repo_root", ".")
	v.SetDefault("runner.artifact_dir", "ci-artifacts")
	v.SetDefault("runner.concurrency", 4)
	v.SetDefault("runner.cooldown", "5m")
	v.SetDefault("runner.keep_failed_plans", false)

	// -- Git / GitHub --
	v.SetDefault("git.author_name", "cicd-autofix-bot")
	v.SetDefault("git.author_email", "autofix@cicd-assistant.local")
	v.SetDefault("github.base_branch", "main")
	v.SetDefault("github.requests_per_second", 1.0)

	// -- Agent --
	v.SetDefault("agent.llm.default_fast_model", "gemini-2.5-flash")
	v.SetDefault("agent.llm.default_powerful_model", "gemini-2.5-pro")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data
	v.BindEnv("github.token", "CICD_GITHUB_TOKEN")
	v.BindEnv("database.url", "CICD_DATABASE_URL")

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg := *fc.toConfig()

	// Manually load the token if Unmarshal didn't pick it up
	if cfg.github.Enabled() && cfg.github.Token == "" {
		cfg.github.Token = os.Getenv("CICD_GITHUB_TOKEN")
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves "~" in user-supplied filesystem paths so they work
// regardless of how the shell passed them through.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.runner.RepoRoot, &c.runner.ArtifactDir, &c.github.PrivateKeyPath, &c.logger.LogFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.runner.Concurrency <= 0 {
		return fmt.Errorf("runner.concurrency must be a positive integer")
	}
	if c.window.DefaultLines <= 0 {
		return fmt.Errorf("window.default_lines must be a positive integer")
	}
	if c.window.MergeGap < 0 {
		return fmt.Errorf("window.merge_gap must not be negative")
	}
	if c.planner.MinConfidence < 0.0 || c.planner.MinConfidence > 1.0 {
		return fmt.Errorf("planner.min_confidence must be between 0.0 and 1.0")
	}
	if c.planner.MaxGroupSize <= 0 {
		return fmt.Errorf("planner.max_group_size must be a positive integer")
	}
	if err := c.github.Validate(); err != nil {
		return fmt.Errorf("github configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the GitHub configuration.
func (g *GitHubConfig) Validate() error {
	if !g.Enabled() {
		return nil
	}
	if g.BaseBranch == "" {
		return fmt.Errorf("github.base_branch is required")
	}
	usingApp := g.AppID != 0 || g.PrivateKeyPath != ""
	if usingApp {
		if g.AppID == 0 || g.PrivateKeyPath == "" || g.InstallationID == 0 {
			return fmt.Errorf("github app auth needs app_id, installation_id and private_key_path")
		}
		return nil
	}
	if g.Token == "" {
		return fmt.Errorf("GitHub token is required but not found. Ensure CICD_GITHUB_TOKEN is set")
	}
	return nil
}
