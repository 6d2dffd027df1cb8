package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("documents", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() {
		form.RemoveAll()
	})

	headers := form.File["documents"]
	require.Len(t, headers, 1)
	return headers[0]
}

func TestLocalStore_SaveAndRemove(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	saved, err := store.Save(fileHeader(t, "report.pdf", "%PDF-1.4 test content"))
	require.NoError(t, err)

	require.Equal(t, "report.pdf", saved.OriginalName)
	require.NotEqual(t, "report.pdf", saved.Filename)
	require.True(t, strings.HasSuffix(saved.Filename, ".pdf"))
	require.Equal(t, filepath.Join(store.Dir(), saved.Filename), saved.Path)

	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 test content", string(data))

	require.NoError(t, store.Remove(saved.Path))
	_, err = os.Stat(saved.Path)
	require.True(t, os.IsNotExist(err))
}

func TestLocalStore_GeneratedNamesAreUnique(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save(fileHeader(t, "same.pdf", "one"))
	require.NoError(t, err)
	second, err := store.Save(fileHeader(t, "same.pdf", "two"))
	require.NoError(t, err)

	require.NotEqual(t, first.Filename, second.Filename)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestNewLocalStore_CreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "uploads")

	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(store.Dir())
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
