// Package runner drives the pipeline end to end: discover CI artifacts,
// parse them into signals, group and plan fixes, apply the edits onto a fix
// branch, and open pull requests.
package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/signals"
)

// parserKind names the artifact parser a file routes to.
type parserKind string

const (
	parserNone       parserKind = ""
	parserRuffLint   parserKind = "ruff-lint"
	parserRuffFormat parserKind = "ruff-format"
	parserMypy       parserKind = "mypy"
	parserPydocstyle parserKind = "pydocstyle"
	parserCheckstyle parserKind = "checkstyle"
)

// discoverArtifacts returns the regular files in dir, sorted by name so runs
// are deterministic.
func discoverArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading artifacts directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// routeArtifact picks a parser from the file name. Ruff-format emits a diff
// plus a JSON status stub; only the diff is parsed.
func routeArtifact(path string) parserKind {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)

	switch {
	case strings.Contains(name, "rf-"),
		strings.Contains(name, "ruff-format"),
		strings.Contains(name, "ruff") && strings.Contains(name, "format"):
		if ext == ".txt" || ext == ".diff" || ext == ".patch" {
			return parserRuffFormat
		}
		return parserNone

	case strings.Contains(name, "rl-"),
		strings.Contains(name, "ruff") && strings.Contains(name, "lint"):
		return parserRuffLint

	case strings.Contains(name, "mp-"),
		strings.Contains(name, "mypy"),
		strings.Contains(name, "my-py"):
		return parserMypy

	case strings.Contains(name, "pds-"), strings.Contains(name, "pydocstyle"):
		return parserPydocstyle

	case strings.Contains(name, "checkstyle"):
		return parserCheckstyle

	default:
		return parserNone
	}
}

// parseArtifact reads the file and runs its parser.
func parseArtifact(path string, kind parserKind, repoRoot string) ([]schemas.FixSignal, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}

	switch kind {
	case parserRuffLint:
		return signals.ParseRuffLint(raw, repoRoot)
	case parserRuffFormat:
		return signals.ParseRuffFormatDiff(string(raw), repoRoot)
	case parserMypy:
		return signals.ParseMypy(string(raw), repoRoot), nil
	case parserPydocstyle:
		return signals.ParsePydocstyle(string(raw), repoRoot), nil
	case parserCheckstyle:
		return signals.ParseCheckstyle(raw, repoRoot)
	default:
		return nil, fmt.Errorf("no parser for artifact %s", path)
	}
}
