package catalog

import (
	"path/filepath"
	"strings"

	"github.com/sdejongh/dirlink/pkg/errors"
)

// PatternSeparator separates search patterns given as a single string
const PatternSeparator = "|"

// SplitPatterns splits a pipe-delimited pattern list, dropping blanks
func SplitPatterns(s string) []string {
	var patterns []string
	for _, p := range strings.Split(s, PatternSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// ValidatePatterns reports the first malformed glob
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		glob := strings.TrimSuffix(strings.ReplaceAll(filepath.ToSlash(p), "**/", ""), "/")
		if _, err := filepath.Match(glob, ""); err != nil {
			return errors.Wrapf(err, errors.ErrValidation, "invalid pattern %q", p)
		}
	}
	return nil
}

// matchesSearch reports whether a file is selected by the search patterns.
// Plain patterns match the base name; patterns with a slash match the
// relative path. No patterns selects everything.
func matchesSearch(relativePath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	slashPath := filepath.ToSlash(relativePath)
	base := filepath.Base(relativePath)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		subject := base
		if strings.Contains(pattern, "/") {
			subject = slashPath
		}
		if ok, _ := filepath.Match(pattern, subject); ok {
			return true
		}
	}
	return false
}

// isExcluded checks a relative path against exclude patterns.
// Supported forms:
//   - basename globs: *.tmp, Thumbs.db
//   - directories: .git/, node_modules/
//   - any depth: **/cache, **/*.bak
//   - relative paths: build/*
func isExcluded(relativePath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	slashPath := filepath.ToSlash(relativePath)
	base := filepath.Base(relativePath)
	components := strings.Split(slashPath, "/")

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if pattern == "" {
			continue
		}

		switch {
		case strings.HasSuffix(pattern, "/"):
			dir := strings.TrimSuffix(pattern, "/")
			// every component but the last is a directory
			for _, c := range components[:len(components)-1] {
				if ok, _ := filepath.Match(dir, c); ok {
					return true
				}
			}

		case strings.HasPrefix(pattern, "**/"):
			rest := strings.TrimPrefix(pattern, "**/")
			if strings.Contains(rest, "/") {
				if slashPath == rest || strings.HasSuffix(slashPath, "/"+rest) {
					return true
				}
				continue
			}
			for _, c := range components {
				if ok, _ := filepath.Match(rest, c); ok {
					return true
				}
			}

		case strings.Contains(pattern, "/"):
			if ok, _ := filepath.Match(pattern, slashPath); ok {
				return true
			}
			if strings.HasSuffix(slashPath, "/"+pattern) {
				return true
			}

		default:
			if ok, _ := filepath.Match(pattern, base); ok {
				return true
			}
		}
	}

	return false
}
