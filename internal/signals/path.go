package signals

import (
	"path/filepath"
	"strings"
)

// toRepoRelative rewrites absolute CI paths to repo-relative ones when the
// path sits under repoRoot. Anything else is returned cleaned but otherwise
// unchanged, which avoids guessing at layouts we did not produce.
func toRepoRelative(path, repoRoot string) string {
	if repoRoot == "" {
		return filepath.Clean(path)
	}
	rel, err := filepath.Rel(repoRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
