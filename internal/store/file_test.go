package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDocument_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

	doc := NewFileDocument(path)
	assert.Equal(t, path, doc.Path())

	text, err := doc.Read()
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", text)
}

func TestFileDocument_ReadMissing(t *testing.T) {
	doc := NewFileDocument(filepath.Join(t.TempDir(), "index.html"))

	_, err := doc.Read()
	assert.ErrorIs(t, err, ErrDocumentMissing)
}

func TestFileDocument_WriteReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0o644))

	doc := NewFileDocument(path)
	require.NoError(t, doc.Write("new"))

	text, err := doc.Read()
	require.NoError(t, err)
	assert.Equal(t, "new", text)

	// no temporary files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileDocument_WriteKeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, NewFileDocument(path).Write("y"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileDocument_WriteCreates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "fresh.html")

	require.NoError(t, NewFileDocument(path).Write("<html></html>"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, newDocumentMode, info.Mode().Perm())
}

func TestFileDocument_WriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "index.html")

	err := NewFileDocument(path).Write("x")
	assert.Error(t, err)
}
