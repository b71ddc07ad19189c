package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidFileName = errors.New("invalid file name")
	ErrNotDirectory    = errors.New("upload path is not a directory")
)

// FileStore keeps uploaded files in a single flat directory.
type FileStore struct {
	root string
}

// ------------------------------------------------------------------------------------------------------
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// ------------------------------------------------------------------------------------------------------
func (f *FileStore) Root() string {
	return f.root
}

// ------------------------------------------------------------------------------------------------------
// EnsureDir creates the upload directory when it is missing and fails when
// the path exists but is a regular file.
func (f *FileStore) EnsureDir() error {
	if strings.TrimSpace(f.root) == "" {
		return fmt.Errorf("upload path is not configured")
	}

	info, err := os.Stat(f.root)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(f.root, 0o755); err != nil {
			return fmt.Errorf("failed to create upload directory %s: %w", f.root, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat upload directory %s: %w", f.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, f.root)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
// ValidFileName rejects anything that is not a bare name inside the upload directory.
func ValidFileName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (f *FileStore) path(name string) (string, error) {
	if err := ValidFileName(name); err != nil {
		return "", err
	}
	return filepath.Join(f.root, name), nil
}

// ------------------------------------------------------------------------------------------------------
// DeleteIfExists removes the named file. It returns false, nil when the file is absent.
func (f *FileStore) DeleteIfExists(name string) (bool, error) {
	p, err := f.path(name)
	if err != nil {
		return false, err
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return true, nil
}

// ------------------------------------------------------------------------------------------------------
// Save writes r under a generated name that keeps the original extension.
// It returns the stored name and the number of bytes written.
func (f *FileStore) Save(originalName string, r io.Reader) (string, int64, error) {
	stored := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	p, err := f.path(stored)
	if err != nil {
		return "", 0, err
	}

	dst, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", stored, err)
	}

	n, err := io.Copy(dst, r)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(p)
		return "", 0, fmt.Errorf("failed to write %s: %w", stored, err)
	}

	return stored, n, nil
}
