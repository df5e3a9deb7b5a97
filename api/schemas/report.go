package schemas

import "time"

// -- Run Report Schemas --

// GroupOutcome records what happened to a single signal group during a run.
type GroupOutcome struct {
	Tool        string     `json:"tool"`
	Type        SignalType `json:"signal_type"`
	SignalCount int        `json:"signal_count"`
	UsedLLM     bool       `json:"used_llm"`
	Applied     bool       `json:"applied"`
	Error       string     `json:"error,omitempty"`
	PR          *PRResult  `json:"pr,omitempty"`
}

// RunReport aggregates the metrics of one pipeline run. It maps directly to
// the `runs` table when the run store is enabled and is also written as a
// JSON report artifact.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	ArtifactCount int                `json:"artifact_count"`
	SignalCounts  map[SignalType]int `json:"signal_counts"`
	GroupOutcomes []GroupOutcome     `json:"group_outcomes"`

	FilesChanged int `json:"files_changed"`
	PRsOpened    int `json:"prs_opened"`
	Failures     int `json:"failures"`
}

// Duration returns the wall-clock duration of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
