package schemas

// -- Signal Schemas --

// SignalType classifies a CI signal by the kind of check that produced it.
// Priority order (highest to lowest): SECURITY > TYPE_CHECK > LINT >
// DOCSTRING > FORMAT. Formatting is always last; it is cosmetic and safe.
type SignalType string

const (
	SignalLint      SignalType = "lint"
	SignalFormat    SignalType = "format"
	SignalTypeCheck SignalType = "type_check"
	SignalSecurity  SignalType = "security"
	SignalDocstring SignalType = "docstring"
)

// Severity represents how severe a signal is. The values are lowercase to
// align with database ENUMs.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// FixSignal is the normalized, tool-agnostic diagnostic every parser emits.
// Everything downstream (prioritization, context extraction, planning)
// consumes this shape and nothing tool-specific.
type FixSignal struct {
	Type     SignalType `json:"signal_type"`
	Severity Severity   `json:"severity"`

	FilePath string `json:"file_path"`
	// Span locates the diagnostic in the file. Nil for signals that do not
	// map to a file region.
	Span *Span `json:"span,omitempty"`

	// RuleCode is the tool's rule identifier, e.g. Ruff "F401" or MyPy
	// "arg-type".
	RuleCode string `json:"rule_code,omitempty"`
	Message  string `json:"message"`
	DocsURL  string `json:"docs_url,omitempty"`

	// Tool identifies the producer ("ruff", "ruff-format", "mypy",
	// "pydocstyle", "checkstyle").
	Tool string `json:"tool"`

	// Fix is present when the tool supplied deterministic edits.
	Fix *Fix `json:"fix,omitempty"`
}

// SignalGroup is a batch of signals handed to the planner as one unit.
// Groups are tool-homogeneous; FORMAT groups additionally hold all signals
// for a single file so their interdependent edits are applied atomically.
type SignalGroup struct {
	Tool    string      `json:"tool"`
	Type    SignalType  `json:"signal_type"`
	Signals []FixSignal `json:"signals"`
}
