package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSnapshotStore implements SnapshotStore as a single JSON document.
// Saves go to a temporary file that is renamed over the target, so readers
// never see a partial document. Thread-safe for concurrent access.
type FileSnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSnapshotStore creates a store writing to path. The parent directory
// is created if needed; the file itself is only created on the first Save.
func NewFileSnapshotStore(path string) (*FileSnapshotStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileSnapshotStore{path: path}, nil
}

// Path returns the snapshot file location.
func (s *FileSnapshotStore) Path() string {
	return s.path
}

// Load reads the snapshot file. A missing file is not an error.
func (s *FileSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No snapshot yet is fine
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", filepath.Base(s.path), err)
	}
	return &snap, nil
}

// Save writes snap as indented JSON, replacing the previous document.
func (s *FileSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Close is a no-op; the file store holds no open handles between calls.
func (s *FileSnapshotStore) Close() error {
	return nil
}
