package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"campusevents/internal/domain"
)

type diskStore struct {
	dir string
}

// NewDiskStore returns a BlobStore that keeps each blob as a file directly under dir.
// The directory is created if it does not exist.
func NewDiskStore(dir string) (domain.BlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

// path resolves name inside the store; names with separators or dot segments
// are rejected with kind.
func (s *diskStore) path(name string, kind error) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: invalid blob name %q", kind, name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *diskStore) Save(ctx context.Context, name string, r io.Reader) error {
	p, err := s.path(name, domain.ErrInvalidInput)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close blob: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}
	return nil
}

func (s *diskStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name, domain.ErrNotFound)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *diskStore) Delete(ctx context.Context, name string) error {
	p, err := s.path(name, domain.ErrInvalidInput)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
