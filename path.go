package lintbridge

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts a path to use forward slashes consistently
// regardless of the operating system and cleans the path.
// Empty paths remain empty.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}

	cleaned := filepath.Clean(path)
	return strings.ReplaceAll(cleaned, "\\", "/")
}

// JoinPaths joins path elements and normalizes the result.
func JoinPaths(elem ...string) string {
	return NormalizePath(filepath.Join(elem...))
}

// RelativeTo rewrites childPath relative to basePath when childPath lies
// inside basePath, so ignore-file patterns match as if the linter ran from
// the project root. A child equal to the base (the root file case) and a
// child outside the base are both returned unchanged.
//
// Containment is decided segment-wise: every segment of basePath must equal
// the corresponding segment of childPath. A plain prefix check would wrongly
// treat "/proj-extra/a.js" as inside "/proj".
func RelativeTo(childPath, basePath string) string {
	if childPath == basePath {
		return childPath
	}

	child := NormalizePath(childPath)
	base := NormalizePath(basePath)

	childSegs := strings.Split(child, "/")
	baseSegs := strings.Split(base, "/")

	if len(childSegs) <= len(baseSegs) {
		return childPath
	}
	for i, seg := range baseSegs {
		if childSegs[i] != seg {
			return childPath
		}
	}

	return strings.Join(childSegs[len(baseSegs):], "/")
}
