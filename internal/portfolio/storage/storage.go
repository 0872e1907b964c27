// Package storage keeps uploaded files (documents, programme covers, profile
// pictures) on the local filesystem under a media root.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/google/uuid"
)

// Directories under the media root.
const (
	DocumentsDir       = "documents"
	CoversDir          = "programme_covers"
	ProfilePicturesDir = "profile_pictures"
)

// FileStorage stores files by slash-separated path relative to its root.
type FileStorage interface {
	Save(dir, name string, src io.Reader) (string, error)
	Open(rel string) (io.ReadCloser, error)
	Delete(rel string) error
	Exists(rel string) (bool, error)
	FullPath(rel string) (string, error)
}

type LocalFileStorage struct {
	root string
}

func NewLocalFileStorage(root string) *LocalFileStorage {
	return &LocalFileStorage{root: root}
}

// DocumentDir is where documents of the named owner are stored.
func DocumentDir(ownerName string) string {
	return path.Join(DocumentsDir, sanitize(ownerName))
}

func sanitize(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// FullPath resolves rel under the root and refuses anything that escapes it.
func (s *LocalFileStorage) FullPath(rel string) (string, error) {
	clean := cleanRel(rel)
	if clean == "" {
		return "", fmt.Errorf("empty file path: %w", e.ErrInvalidInput)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// cleanRel drops any leading "..", so the result never leaves the root.
func cleanRel(rel string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(rel)), "/")
}

// Save writes src as dir/name. When that name is taken a short random
// suffix is added before the extension. It returns the stored relative path.
func (s *LocalFileStorage) Save(dir, name string, src io.Reader) (string, error) {
	name = sanitize(filepath.Base(name))
	dir = cleanRel(dir)
	dirPath := filepath.Join(s.root, filepath.FromSlash(dir))
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	rel := path.Join(dir, name)
	dst, err := s.create(rel)
	if errors.Is(err, os.ErrExist) {
		rel = path.Join(dir, uniquify(name))
		dst, err = s.create(rel)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}
	return rel, nil
}

func (s *LocalFileStorage) create(rel string) (*os.File, error) {
	full, err := s.FullPath(rel)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func uniquify(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + "_" + uuid.NewString()[:8] + ext
}

func (s *LocalFileStorage) Open(rel string) (io.ReadCloser, error) {
	full, err := s.FullPath(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, e.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete removes the file. A missing file is not an error.
func (s *LocalFileStorage) Delete(rel string) error {
	full, err := s.FullPath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalFileStorage) Exists(rel string) (bool, error) {
	full, err := s.FullPath(rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}
