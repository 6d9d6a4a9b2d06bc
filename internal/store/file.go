package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// FileStore keeps the threshold configuration in a YAML file. Writes go to a
// temporary file in the same directory and are renamed into place.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore for path. The file need not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// LoadThresholds reads the YAML document. A missing file is ErrNotFound.
func (s *FileStore) LoadThresholds(_ context.Context) (*domain.Thresholds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading thresholds file: %w", err)
	}

	var th domain.Thresholds
	if err := yaml.Unmarshal(data, &th); err != nil {
		return nil, fmt.Errorf("parsing thresholds file %s: %w", s.path, err)
	}
	if th.Process == nil && th.Effluent == nil {
		return nil, ErrNotFound
	}
	return &th, nil
}

// SaveThresholds writes the YAML document atomically.
func (s *FileStore) SaveThresholds(_ context.Context, th *domain.Thresholds) error {
	data, err := yaml.Marshal(th)
	if err != nil {
		return fmt.Errorf("marshaling thresholds: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating thresholds directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".thresholds-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing thresholds file: %w", err)
	}
	return nil
}

// Ping checks that the directory holding the file is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}
