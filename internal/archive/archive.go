// Package archive owns the flat JSON file served by the public static site.
package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// File is the public archive on disk. It is derived data: every write
// replaces the whole file, and readers never observe a partial write.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Write atomically replaces the archive with data, creating the parent
// directory when missing.
func (f *File) Write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("archive: create dir: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(f.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("archive: create pending file: %w", err)
	}
	defer pendingFile.Cleanup()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("archive: write data: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("archive: replace %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("archive: read: %w", err)
	}
	return data, nil
}
