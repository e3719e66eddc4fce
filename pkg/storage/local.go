package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sdejongh/dirlink/pkg/errors"
)

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
	trash    *Trash
}

// NewLocal creates a new local filesystem backend rooted at an existing directory
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(err, errors.ErrPathNotFound, "directory does not exist: %s", absPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{rootPath: absPath}, nil
}

// SetTrash sets the trash used by Trash. Without one, Trash fails with ErrNoTrash.
func (l *Local) SetTrash(t *Trash) {
	l.trash = t
}

// Root returns the absolute root path
func (l *Local) Root() string {
	return l.rootPath
}

func (l *Local) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.rootPath, path)
}

// List returns all entries in the directory recursively
func (l *Local) List(ctx context.Context, path string) ([]FileInfo, error) {
	fullPath := l.resolve(path)
	var files []FileInfo

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrPathNotFound, "directory does not exist: %s", fullPath)
		}
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	err := filepath.WalkDir(fullPath, func(p string, d fs.DirEntry, err error) error {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, relErr := filepath.Rel(l.rootPath, p)
		if relErr != nil {
			return relErr
		}

		if err != nil {
			if p == fullPath {
				return err
			}
			files = append(files, FileInfo{Path: p, RelativePath: relPath, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			files = append(files, FileInfo{Path: p, RelativePath: relPath, Err: err})
			return nil
		}

		files = append(files, newFileInfo(p, relPath, info))
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Exists checks if an entry exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Lstat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns entry metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := l.resolve(path)

	info, err := os.Lstat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := filepath.Rel(l.rootPath, fullPath)
	if err != nil {
		return nil, err
	}

	fi := newFileInfo(fullPath, relPath, info)
	return &fi, nil
}

// Rename moves an entry without replacing an existing destination
func (l *Local) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := renameNoReplace(l.resolve(oldPath), l.resolve(newPath)); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}

// SameFile reports whether a and b are the same file once symlinks are followed
func (l *Local) SameFile(ctx context.Context, a, b string) (bool, error) {
	ia, err := os.Stat(l.resolve(a))
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	ib, err := os.Stat(l.resolve(b))
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return os.SameFile(ia, ib), nil
}

// Symlink creates a symbolic link at linkPath pointing to target
func (l *Local) Symlink(ctx context.Context, target, linkPath string) error {
	if err := os.Symlink(target, l.resolve(linkPath)); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	return nil
}

// Trash moves an entry to the configured trash
func (l *Local) Trash(ctx context.Context, path string) error {
	if l.trash == nil {
		return ErrNoTrash
	}
	_, err := l.trash.Put(l.resolve(path))
	return err
}

// Remove deletes a single entry
func (l *Local) Remove(ctx context.Context, path string) error {
	if err := os.Remove(l.resolve(path)); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

func newFileInfo(path, relPath string, info fs.FileInfo) FileInfo {
	return FileInfo{
		Path:         path,
		RelativePath: relPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		Mode:         info.Mode(),
		IsDir:        info.IsDir(),
		IsSymlink:    info.Mode()&fs.ModeSymlink != 0,
		Permissions:  uint32(info.Mode().Perm()),
	}
}
