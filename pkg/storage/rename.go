package storage

import (
	"io/fs"
	"os"
)

// checkedRename refuses to overwrite newPath. The check and the rename are
// two steps, so an entry created in between is still replaced.
func checkedRename(oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: fs.ErrExist}
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.Rename(oldPath, newPath)
}
