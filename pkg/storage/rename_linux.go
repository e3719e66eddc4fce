//go:build linux

package storage

import (
	stderrors "errors"
	"os"

	"golang.org/x/sys/unix"
)

// renameNoReplace renames atomically with RENAME_NOREPLACE. Filesystems that
// do not support the flag get a checked rename.
func renameNoReplace(oldPath, newPath string) error {
	err := unix.Renameat2(unix.AT_FDCWD, oldPath, unix.AT_FDCWD, newPath, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, unix.ENOSYS), stderrors.Is(err, unix.EINVAL):
		return checkedRename(oldPath, newPath)
	default:
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: err}
	}
}
