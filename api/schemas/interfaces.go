package schemas

import "context"

// -- LLM Interfaces --

// ModelTier allows for selecting a large language model based on a preference
// for speed versus capability rather than a hardcoded model name.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, potentially less capable model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable, potentially slower model.
)

// GenerationOptions provides detailed parameters to control text generation.
type GenerationOptions struct {
	Temperature     float32 `json:"temperature"`
	ForceJSONFormat bool    `json:"force_json_format"`
}

// GenerationRequest encapsulates a complete request to the LLM, including
// the prompts, the desired model tier and generation parameters.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient defines a standard interface for interacting with a Large
// Language Model provider.
type LLMClient interface {
	// Generate produces a completion for the request, honoring ctx for
	// cancellation.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// -- Collaborator Interfaces --

// SourceStore supplies file content to the context and editing pipeline.
// Lines are returned split on line boundaries with terminators preserved, so
// joining them reproduces the file byte for byte. The editing core performs
// no I/O of its own.
type SourceStore interface {
	ReadLines(path string) ([]string, error)
}

// Committer persists transformed file content onto a fix branch. The editing
// core hands it complete file content; there is no partial-write mode.
type Committer interface {
	WriteFile(path, content string) error
	Commit(ctx context.Context, branch, message string) (commitSHA string, err error)
}

// PRCreator opens a pull request for a committed fix branch.
type PRCreator interface {
	CreatePullRequest(ctx context.Context, branch, title, body string) (*PRResult, error)
}

// RunStore records pipeline runs and their outcomes for later reporting.
type RunStore interface {
	RecordRun(ctx context.Context, report *RunReport) error
	GetRun(ctx context.Context, runID string) (*RunReport, error)
}
