package documents

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ObjectStorage is where uploaded PDFs live. The interface keeps the service
// testable and leaves room for a bucket-backed implementation.
type ObjectStorage interface {
	Save(data []byte) (path string, err error)
	Read(path string) ([]byte, error)
	Delete(path string) error
}

// LocalStorage writes PDFs under a single directory with random names.
type LocalStorage struct {
	root string
}

func NewLocalStorage() (*LocalStorage, error) {
	root := os.Getenv("STORAGE_DIR")
	if root == "" {
		root = "./data/uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) Save(data []byte) (string, error) {
	name := uuid.NewString() + ".pdf"
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}

func (s *LocalStorage) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

func (s *LocalStorage) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete pdf: %w", err)
	}
	return nil
}
