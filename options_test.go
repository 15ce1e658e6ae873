package sitepatch

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testDocument = `<html><head><title>Portfolio</title></head><body>` +
	`<script>const PROJECTS = [{"name":"first"}];</script></body></html>`

// newSite writes document as index.html in a fresh directory.
func newSite(t *testing.T, document string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(document), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return dir
}

func TestNew_Defaults(t *testing.T) {
	dir := newSite(t, testDocument)
	t.Chdir(dir)

	srv, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if srv.Port() != 8080 {
		t.Errorf("Port() = %v, want %v", srv.Port(), 8080)
	}
	if srv.Marker() != "const PROJECTS" {
		t.Errorf("Marker() = %q, want %q", srv.Marker(), "const PROJECTS")
	}
	if srv.ScanMode() != "quote-aware" {
		t.Errorf("ScanMode() = %q, want %q", srv.ScanMode(), "quote-aware")
	}
	if filepath.Base(srv.DocumentPath()) != "index.html" {
		t.Errorf("DocumentPath() = %q, want index.html", srv.DocumentPath())
	}

	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(srv.Root())
	if gotRoot != wantRoot {
		t.Errorf("Root() = %q, want working directory %q", gotRoot, wantRoot)
	}
}

func TestNew_AllOptions(t *testing.T) {
	dir := newSite(t, testDocument)
	var logBuf bytes.Buffer

	srv, err := New(
		WithRoot(dir),
		WithPort(9090),
		WithDocument("pages/editor.html"),
		WithMarker("let", "ITEMS"),
		WithScanMode("naive"),
		WithAllowedOrigin("http://localhost:3000"),
		WithMaxBodyBytes(1024),
		WithShutdownTimeout(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if srv.Port() != 9090 {
		t.Errorf("Port() = %v, want %v", srv.Port(), 9090)
	}
	if srv.DocumentPath() != filepath.Join(srv.Root(), "pages", "editor.html") {
		t.Errorf("DocumentPath() = %q", srv.DocumentPath())
	}
	if srv.Marker() != "let ITEMS" {
		t.Errorf("Marker() = %q, want %q", srv.Marker(), "let ITEMS")
	}
	if srv.ScanMode() != "naive" {
		t.Errorf("ScanMode() = %q, want %q", srv.ScanMode(), "naive")
	}
	if srv.allowedOrigin != "http://localhost:3000" {
		t.Errorf("allowedOrigin = %q", srv.allowedOrigin)
	}
	if srv.maxBodyBytes != 1024 {
		t.Errorf("maxBodyBytes = %d, want 1024", srv.maxBodyBytes)
	}
	if srv.shutdownTimeout != time.Second {
		t.Errorf("shutdownTimeout = %v, want 1s", srv.shutdownTimeout)
	}
}

func TestNew_RootMustExist(t *testing.T) {
	_, err := New(WithRoot(filepath.Join(t.TempDir(), "missing")))
	if err == nil {
		t.Error("New() expected error for missing root, got nil")
	}
}

func TestNew_MissingDocumentIsAllowed(t *testing.T) {
	srv, err := New(WithRoot(t.TempDir()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Check() == nil {
		t.Error("Check() expected error for missing document, got nil")
	}
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr string
	}{
		{"empty root", WithRoot(""), "root cannot be empty"},
		{"port zero", WithPort(0), "port must be between 1 and 65535"},
		{"port too high", WithPort(70000), "port must be between 1 and 65535"},
		{"absolute document", WithDocument("/etc/passwd"), "document must be a relative path"},
		{"escaping document", WithDocument("../index.html"), "document must be a relative path"},
		{"empty document", WithDocument(""), "document must be a relative path"},
		{"bad marker name", WithMarker("const", "1PROJECTS"), "not a valid identifier"},
		{"bad marker keyword", WithMarker("function", "PROJECTS"), "marker keyword"},
		{"bad scan mode", WithScanMode("fast"), "unknown scan mode"},
		{"empty origin", WithAllowedOrigin(""), "allowed origin cannot be empty"},
		{"zero body limit", WithMaxBodyBytes(0), "max body bytes must be positive"},
		{"negative shutdown", WithShutdownTimeout(-time.Second), "shutdown timeout must be positive"},
		{"nil logger", WithLogger(nil), "logger cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithRoot(t.TempDir()), tt.opt)
			if err == nil {
				t.Fatalf("New() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWithMarker_BareName(t *testing.T) {
	srv, err := New(WithRoot(t.TempDir()), WithMarker("", "window.PROJECTS"))
	if err == nil {
		t.Fatalf("New() expected error for dotted name, got marker %q", srv.Marker())
	}

	srv, err = New(WithRoot(t.TempDir()), WithMarker("", "PROJECTS"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Marker() != "PROJECTS" {
		t.Errorf("Marker() = %q, want %q", srv.Marker(), "PROJECTS")
	}
}
