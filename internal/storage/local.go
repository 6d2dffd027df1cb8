package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SavedFile describes a file persisted to the upload store.
type SavedFile struct {
	Filename     string // generated storage name
	OriginalName string // client-supplied name
	Path         string // location on disk
}

// LocalStore persists uploads to a flat directory on the local filesystem.
// Stored names are uuid-based, so concurrent writers never contest a path.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the upload directory if needed and returns the store.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the upload directory path.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes a multipart file to the store under a generated name.
func (s *LocalStore) Save(fh *multipart.FileHeader) (SavedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return SavedFile{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(fh.Filename)
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return SavedFile{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return SavedFile{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return SavedFile{
		Filename:     name,
		OriginalName: fh.Filename,
		Path:         path,
	}, nil
}

// Remove deletes a stored file by path.
func (s *LocalStore) Remove(path string) error {
	return os.Remove(path)
}
