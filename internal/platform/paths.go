package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath returns a clean absolute path, falling back to a clean
// relative one when the working directory is unknown
func NormalizePath(path string) string {
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, `\\`) && !strings.HasPrefix(normalized, `\\`) {
			normalized = `\\` + normalized
		}
	}

	if abs, err := filepath.Abs(normalized); err == nil {
		return abs
	}
	return normalized
}

// ResolvePath returns the normalized path with every symlink component
// resolved, or the normalized path when it cannot be resolved
func ResolvePath(path string) string {
	normalized := NormalizePath(path)
	if resolved, err := filepath.EvalSymlinks(normalized); err == nil {
		return resolved
	}
	return normalized
}

// SamePath reports whether a and b name the same location, ignoring case
func SamePath(a, b string) bool {
	return strings.EqualFold(NormalizePath(a), NormalizePath(b))
}

// IsWithin reports whether child lies strictly below parent, ignoring case
func IsWithin(parent, child string) bool {
	p := strings.ToLower(NormalizePath(parent))
	c := strings.ToLower(NormalizePath(child))
	if p == c {
		return false
	}
	if !strings.HasSuffix(p, string(filepath.Separator)) {
		p += string(filepath.Separator)
	}
	return strings.HasPrefix(c, p)
}

// ShortenPath keeps the first and last components of a long path:
// /home/user/photos/a.jpg becomes /.../a.jpg
func ShortenPath(path string) string {
	sep := string(filepath.Separator)
	first := strings.Index(path, sep)
	last := strings.LastIndex(path, sep)

	if first == -1 || first == last {
		return path
	}

	return path[:first+1] + "..." + sep + path[last+1:]
}
