package signals

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

const toolPydocstyle = "pydocstyle"

// pydocstyle prints two lines per finding:
//
//	{file}:{line} in public class `Widget`:
//	        D101: Missing docstring in public class
var (
	pydocstyleLocationRe = regexp.MustCompile(`^(.+?):(\d+)\s+(.+):$`)
	pydocstyleErrorRe    = regexp.MustCompile(`^([A-Z]\d+):\s+(.+)$`)
)

// Only missing-docstring codes are supported; everything else pydocstyle
// can report is filtered out.
var pydocstyleSupported = map[string]bool{
	"D101": true,
	"D102": true,
	"D103": true,
}

// ParsePydocstyle converts pydocstyle text output into docstring signals.
// Run the tool with --select=D101,D102,D103; unsupported codes are dropped.
func ParsePydocstyle(raw string, repoRoot string) []schemas.FixSignal {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	lines := strings.Split(raw, "\n")
	var out []schemas.FixSignal

	for i := 0; i < len(lines); i++ {
		location := pydocstyleLocationRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if location == nil || i+1 >= len(lines) {
			continue
		}
		errLine := pydocstyleErrorRe.FindStringSubmatch(strings.TrimSpace(lines[i+1]))
		if errLine == nil {
			continue
		}

		code, message := errLine[1], errLine[2]
		if !pydocstyleSupported[code] {
			i++
			continue
		}

		row, _ := strconv.Atoi(location[2])
		at := schemas.Position{Row: row}
		span := schemas.NewSpan(at, at)

		out = append(out, schemas.FixSignal{
			Type:     schemas.SignalDocstring,
			Severity: severityForPydocstyle(code),
			FilePath: toRepoRelative(location[1], repoRoot),
			Span:     &span,
			RuleCode: code,
			Message:  message,
			DocsURL:  fmt.Sprintf("http://www.pydocstyle.org/en/stable/error_codes.html#%s", code),
			Tool:     toolPydocstyle,
		})
		i++
	}
	return out
}
