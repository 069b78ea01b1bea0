package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore keeps packages in a local directory.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory when missing.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("package directory must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create package directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) Open(ctx context.Context, ref string) ([]byte, error) {
	name, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readLimited(file)
}

func (s *FileStore) Put(ctx context.Context, ref string, reader io.Reader, size int64) error {
	if size > MaxPackageBytes {
		return ErrPackageTooLarge
	}
	name, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(reader, MaxPackageBytes)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

func (s *FileStore) resolve(ref string) (string, error) {
	cleaned, err := cleanRef(ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}
