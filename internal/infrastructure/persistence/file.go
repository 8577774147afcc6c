package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	cartapp "github.com/shopfront/cartengine/internal/application/cart"
)

// FileSnapshotStore persists the snapshot as a JSON file. Writes go through
// a temp file plus rename so a crash mid-write never leaves a truncated
// snapshot behind.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore creates a file-backed snapshot store at the given path.
func NewFileSnapshotStore(path string) (*FileSnapshotStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot file path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	return &FileSnapshotStore{path: path}, nil
}

// Load reads and decodes the snapshot file. A missing file means no snapshot
// exists yet and returns (nil, nil).
func (s *FileSnapshotStore) Load(_ context.Context) (*cartapp.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return decodeSnapshot(data)
}

// Save writes the snapshot atomically.
func (s *FileSnapshotStore) Save(_ context.Context, snap cartapp.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}
