package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"
)

// ErrDocumentMissing is returned when the document file does not exist.
var ErrDocumentMissing = errors.New("document missing")

// newDocumentMode is applied to documents that did not exist before a write.
// Existing documents keep their permissions.
const newDocumentMode fs.FileMode = 0o644

// FileDocument is a [Document] backed by a file on disk.
//
// Writes go to a temporary file in the same directory which is then renamed
// over the target, so readers see either the old or the new document.
type FileDocument struct {
	path string
}

// NewFileDocument returns a [FileDocument] for path. The file is not opened
// until the first Read or Write.
func NewFileDocument(path string) *FileDocument {
	return &FileDocument{path: path}
}

// Path returns the file path.
func (d *FileDocument) Path() string {
	return d.path
}

// Read returns the whole file as text.
func (d *FileDocument) Read() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDocumentMissing, d.path)
		}
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

// Write atomically replaces the file with text.
func (d *FileDocument) Write(text string) error {
	_, statErr := os.Stat(d.path)
	created := errors.Is(statErr, fs.ErrNotExist)

	if err := atomic.WriteFile(d.path, bytes.NewReader([]byte(text))); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if created {
		if err := os.Chmod(d.path, newDocumentMode); err != nil {
			return fmt.Errorf("failed to set document permissions: %w", err)
		}
	}
	return nil
}
