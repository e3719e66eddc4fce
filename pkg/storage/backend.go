package storage

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// FileInfo represents metadata about a filesystem entry
type FileInfo struct {
	Path         string
	RelativePath string
	Size         int64
	ModTime      time.Time
	Mode         fs.FileMode
	IsDir        bool
	IsSymlink    bool
	Permissions  uint32

	// Err is set for entries that could not be read during a listing.
	// Only Path and RelativePath are meaningful when it is non-nil.
	Err error
}

// IsRegular reports whether the entry is a readable regular file
func (fi FileInfo) IsRegular() bool {
	return fi.Err == nil && fi.Mode.IsRegular()
}

// Backend defines the filesystem capabilities the dedup core consumes.
// Relative paths are resolved against the backend root.
type Backend interface {
	// Root returns the absolute root path of the backend
	Root() string

	// List returns all entries under path recursively without following symlinks.
	// Unreadable entries are returned with Err set instead of aborting the listing.
	List(ctx context.Context, path string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks if an entry exists (symlinks are not followed)
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns entry metadata (symlinks are not followed)
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Rename moves an entry within the backend. It fails with fs.ErrExist
	// instead of replacing an existing newPath.
	Rename(ctx context.Context, oldPath, newPath string) error

	// SameFile reports whether a and b resolve to the same file, following
	// symlinks. Hard links and bind mounts count as the same file.
	SameFile(ctx context.Context, a, b string) (bool, error)

	// Symlink creates a symbolic link at linkPath whose target is the
	// absolute path target
	Symlink(ctx context.Context, target, linkPath string) error

	// Trash moves an entry to a recoverable location
	Trash(ctx context.Context, path string) error

	// Remove permanently deletes a single entry
	Remove(ctx context.Context, path string) error

	// Close releases any resources held by the backend
	Close() error
}
