package signals

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

const toolCheckstyle = "checkstyle"

// ParseCheckstyle converts checkstyle-format XML reports into lint signals.
// Several Python and JS tools emit this format (flake8 --format=checkstyle,
// eslint -f checkstyle), so the parser keys on the report shape, not the
// producing tool. Columns in checkstyle reports are 1-based.
func ParseCheckstyle(raw []byte, repoRoot string) ([]schemas.FixSignal, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("decoding checkstyle XML: %w", err)
	}

	root := doc.SelectElement("checkstyle")
	if root == nil {
		return nil, fmt.Errorf("checkstyle XML missing <checkstyle> root")
	}

	var out []schemas.FixSignal
	for _, file := range root.SelectElements("file") {
		path := file.SelectAttrValue("name", "")
		if path == "" {
			continue
		}
		for _, e := range file.SelectElements("error") {
			row := atoi(e.SelectAttrValue("line", "0"))
			if row <= 0 {
				continue
			}
			col := atoi(e.SelectAttrValue("column", "1")) - 1
			if col < 0 {
				col = 0
			}

			at := schemas.Position{Row: row, Col: col}
			span := schemas.NewSpan(at, at)

			out = append(out, schemas.FixSignal{
				Type:     schemas.SignalLint,
				Severity: severityForCheckstyle(e.SelectAttrValue("severity", "")),
				FilePath: toRepoRelative(path, repoRoot),
				Span:     &span,
				RuleCode: ruleFromSource(e.SelectAttrValue("source", "")),
				Message:  e.SelectAttrValue("message", ""),
				Tool:     toolCheckstyle,
			})
		}
	}
	return out, nil
}

// ruleFromSource keeps the last dotted segment of a checkstyle source id,
// e.g. "com.puppycrawl.tools.checkstyle.checks.naming.MemberNameCheck"
// becomes "MemberNameCheck".
func ruleFromSource(source string) string {
	if source == "" {
		return ""
	}
	parts := strings.Split(source, ".")
	return parts[len(parts)-1]
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
