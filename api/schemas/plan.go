package schemas

// -- Fix Plan Schemas --

// FileEdit is an edit batch destined for a single file, with the
// human-readable reasoning that produced it. Edits within one batch must be
// pairwise non-overlapping before application.
type FileEdit struct {
	FilePath  string     `json:"file_path"`
	Edits     []TextEdit `json:"edits"`
	Reasoning string     `json:"reasoning,omitempty"`
}

// FixPlan is an executable set of file edits for one signal group, produced
// either directly from deterministic tool fixes or by the generation policy.
type FixPlan struct {
	GroupTool string     `json:"group_tool"`
	GroupType SignalType `json:"group_signal_type"`
	FileEdits []FileEdit `json:"file_edits"`
	Summary   string     `json:"summary"`
	Warnings  []string   `json:"warnings,omitempty"`
	// Confidence is the planner's self-assessed score in [0.0, 1.0].
	// Deterministic plans always carry 1.0.
	Confidence float64 `json:"confidence"`
}

// PRResult describes the pull request opened for an applied fix plan.
type PRResult struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Branch string `json:"branch"`
}
