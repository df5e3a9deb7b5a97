// Package signals normalizes CI tool output (ruff, mypy, pydocstyle,
// checkstyle) into FixSignal values the rest of the pipeline consumes.
package signals

import "github.com/davidjmoloney/cicd-ai-assistant/api/schemas"

// ruffSeverity maps known rule codes to severities. Ruff rule prefixes do
// not equal severity, so only codes we understand are listed; everything
// else defaults to medium so it surfaces without outranking real errors.
var ruffSeverity = map[string]schemas.Severity{
	// F-series: Pyflakes errors
	"F401": schemas.SeverityLow,    // unused import
	"F541": schemas.SeverityLow,    // extraneous f-string prefix
	"F601": schemas.SeverityHigh,   // repeated dictionary key loses data
	"F811": schemas.SeverityMedium, // redefinition of unused name
	"F821": schemas.SeverityHigh,   // undefined name is a runtime NameError
	"F823": schemas.SeverityHigh,   // use before assignment is a runtime UnboundLocalError
	"F841": schemas.SeverityMedium, // unused variable, fix often unsafe

	// E-series: PEP 8 style violations
	"E402": schemas.SeverityMedium, // late import can reorder side effects
	"E701": schemas.SeverityLow,
	"E702": schemas.SeverityLow,
	"E713": schemas.SeverityLow,
	"E722": schemas.SeverityMedium, // bare except swallows SystemExit
	"E731": schemas.SeverityLow,
}

func severityForRuff(code string) schemas.Severity {
	if s, ok := ruffSeverity[code]; ok {
		return s
	}
	return schemas.SeverityMedium
}

func severityForMypy(mypySeverity string) schemas.Severity {
	if mypySeverity == "note" {
		return schemas.SeverityLow
	}
	return schemas.SeverityMedium
}

func severityForPydocstyle(string) schemas.Severity {
	return schemas.SeverityLow
}

func severityForCheckstyle(level string) schemas.Severity {
	switch level {
	case "error":
		return schemas.SeverityMedium
	default:
		return schemas.SeverityLow
	}
}
