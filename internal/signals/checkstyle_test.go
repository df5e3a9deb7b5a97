package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

const checkstyleXML = `<?xml version="1.0" encoding="utf-8"?>
<checkstyle version="4.3">
  <file name="/repo/app/service.py">
    <error line="12" column="5" severity="error"
           message="line too long (92 &gt; 88 characters)"
           source="flake8.E501"/>
    <error line="30" severity="warning"
           message="local variable 'tmp' is assigned to but never used"
           source="flake8.F841"/>
  </file>
  <file name="/repo/app/empty.py"/>
</checkstyle>
`

func TestParseCheckstyle(t *testing.T) {
	sigs, err := ParseCheckstyle([]byte(checkstyleXML), "/repo")
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	first := sigs[0]
	assert.Equal(t, schemas.SignalLint, first.Type)
	assert.Equal(t, schemas.SeverityMedium, first.Severity)
	assert.Equal(t, "app/service.py", first.FilePath)
	assert.Equal(t, "E501", first.RuleCode)
	assert.Equal(t, "checkstyle", first.Tool)
	assert.Equal(t, schemas.Position{Row: 12, Col: 4}, first.Span.Start)

	second := sigs[1]
	assert.Equal(t, schemas.SeverityLow, second.Severity)
	assert.Equal(t, "F841", second.RuleCode)
	assert.Equal(t, schemas.Position{Row: 30, Col: 0}, second.Span.Start)
}

func TestParseCheckstyleErrors(t *testing.T) {
	_, err := ParseCheckstyle([]byte("<notcheckstyle/>"), "")
	assert.Error(t, err)

	_, err = ParseCheckstyle([]byte("<<<"), "")
	assert.Error(t, err)

	sigs, err := ParseCheckstyle(nil, "")
	assert.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestToRepoRelative(t *testing.T) {
	assert.Equal(t, "app/x.py", toRepoRelative("/repo/app/x.py", "/repo"))
	assert.Equal(t, "/elsewhere/x.py", toRepoRelative("/elsewhere/x.py", "/repo"))
	assert.Equal(t, "app/x.py", toRepoRelative("app/x.py", ""))
}
