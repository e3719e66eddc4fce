package storage

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
)

var (
	// ErrNoTrash is returned by Trash when the backend has no trash configured
	ErrNoTrash = stderrors.New("no trash configured")
	// ErrCrossDevice is returned when the trash lives on another filesystem
	ErrCrossDevice = stderrors.New("trash is on a different filesystem")
)

const trashInfoTime = "2006-01-02T15:04:05"

// Trash is a freedesktop.org style trash directory (files/ + info/)
type Trash struct {
	dir string
	now func() time.Time
}

// NewTrash creates a trash rooted at dir
func NewTrash(dir string) *Trash {
	return &Trash{dir: dir, now: time.Now}
}

// NewHomeTrash returns the user's home trash ($XDG_DATA_HOME/Trash)
func NewHomeTrash() *Trash {
	return NewTrash(filepath.Join(xdg.DataHome, "Trash"))
}

// Dir returns the trash root
func (t *Trash) Dir() string {
	return t.dir
}

// Put moves path into the trash and writes its .trashinfo record.
// It returns the location of the trashed file.
func (t *Trash) Put(path string) (string, error) {
	filesDir := filepath.Join(t.dir, "files")
	infoDir := filepath.Join(t.dir, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", fmt.Errorf("failed to create trash directory: %w", err)
		}
	}

	name, infoFile, err := t.reserve(infoDir, filepath.Base(path))
	if err != nil {
		return "", err
	}

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapeTrashPath(path), t.now().Format(trashInfoTime))
	_, werr := infoFile.WriteString(info)
	cerr := infoFile.Close()
	infoPath := infoFile.Name()
	if werr != nil || cerr != nil {
		os.Remove(infoPath)
		return "", fmt.Errorf("failed to write trash info: %w", stderrors.Join(werr, cerr))
	}

	dest := filepath.Join(filesDir, name)
	if err := os.Rename(path, dest); err != nil {
		os.Remove(infoPath)
		var linkErr *os.LinkError
		if stderrors.As(err, &linkErr) && stderrors.Is(linkErr.Err, syscall.EXDEV) {
			return "", fmt.Errorf("%w: %s", ErrCrossDevice, path)
		}
		return "", fmt.Errorf("failed to move file to trash: %w", err)
	}

	return dest, nil
}

// reserve picks a free name in the trash by exclusively creating its info file
func (t *Trash) reserve(infoDir, base string) (string, *os.File, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 1; i < 10000; i++ {
		name := base
		if i > 1 {
			name = stem + "." + strconv.Itoa(i) + ext
		}
		f, err := os.OpenFile(filepath.Join(infoDir, name+".trashinfo"), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			return name, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("failed to create trash info: %w", err)
		}
	}
	return "", nil, fmt.Errorf("no free trash name for %s", base)
}

func escapeTrashPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
