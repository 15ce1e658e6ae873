// Package static maps request paths to files under a site root.
//
// The resolver never reads outside its root: a path that escapes it, either
// lexically through ".." segments or through a symlink, fails with
// [ErrPathForbidden]. Missing files fail with [ErrPathNotFound].
package static

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathForbidden is returned when a request resolves outside the site root.
	ErrPathForbidden = errors.New("path forbidden")

	// ErrPathNotFound is returned when the requested file does not exist.
	ErrPathNotFound = errors.New("path not found")
)

// DefaultDocument is served for "/" when no other document is configured.
const DefaultDocument = "index.html"

// Resolved is a file the resolver has located.
type Resolved struct {
	// Path is the absolute filesystem path of the file.
	Path string

	// ContentType is the MIME type derived from the file extension.
	ContentType string

	// Size is the file size in bytes.
	Size int64
}

// Resolver resolves request paths against a fixed site root.
type Resolver struct {
	root     string
	realRoot string
	document string
}

// NewResolver creates a [Resolver] for root. The root must be an existing
// directory. An empty document selects [DefaultDocument].
func NewResolver(root, document string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat site root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site root %s is not a directory", abs)
	}

	realRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site root: %w", err)
	}

	if document == "" {
		document = DefaultDocument
	}

	return &Resolver{root: abs, realRoot: realRoot, document: document}, nil
}

// Root returns the absolute site root.
func (r *Resolver) Root() string {
	return r.root
}

// DocumentPath returns the absolute path of the default document.
func (r *Resolver) DocumentPath() string {
	return filepath.Join(r.root, filepath.FromSlash(r.document))
}

// Resolve maps requestPath to a file under the root.
//
// An empty path or "/" maps to the default document, as does a directory
// that contains one. The path is joined to the root without first cleaning
// away ".." segments, so "/../secret.txt" is rejected rather than silently
// rewritten to "/secret.txt".
func (r *Resolver) Resolve(requestPath string) (Resolved, error) {
	rel := strings.TrimLeft(requestPath, "/")
	if rel == "" {
		rel = r.document
	}
	if strings.ContainsRune(rel, 0) {
		return Resolved{}, fmt.Errorf("%w: %q", ErrPathForbidden, requestPath)
	}

	full := filepath.Join(r.root, filepath.FromSlash(rel))
	if !within(r.root, full) {
		return Resolved{}, fmt.Errorf("%w: %q", ErrPathForbidden, requestPath)
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Resolved{}, fmt.Errorf("%w: %q", ErrPathNotFound, requestPath)
		}
		return Resolved{}, fmt.Errorf("failed to stat %q: %w", requestPath, err)
	}

	if info.IsDir() {
		full = filepath.Join(full, filepath.FromSlash(r.document))
		info, err = os.Stat(full)
		if err != nil || info.IsDir() {
			return Resolved{}, fmt.Errorf("%w: %q", ErrPathNotFound, requestPath)
		}
	}

	target, err := filepath.EvalSymlinks(full)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %q", ErrPathNotFound, requestPath)
	}
	if !within(r.realRoot, target) {
		return Resolved{}, fmt.Errorf("%w: %q", ErrPathForbidden, requestPath)
	}

	return Resolved{
		Path:        full,
		ContentType: ContentType(full),
		Size:        info.Size(),
	}, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
