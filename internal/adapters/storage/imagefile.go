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
	"sportmeet/internal/domain"
)

type imageStore struct {
	dir string
}

// NewImageStore returns a FileStore that writes event images under dir,
// creating it if needed. Files get random names so uploads never collide.
func NewImageStore(dir string) (domain.FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &imageStore{dir: dir}, nil
}

func (s *imageStore) Save(r io.Reader, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := uuid.NewString() + strings.ToLower(ext)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return name, nil
}

func (s *imageStore) Delete(name string) error {
	// Names come from Save; strip any path so a stored value can never
	// reach outside the image directory.
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}
