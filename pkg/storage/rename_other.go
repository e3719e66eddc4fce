//go:build !linux

package storage

func renameNoReplace(oldPath, newPath string) error {
	return checkedRename(oldPath, newPath)
}
