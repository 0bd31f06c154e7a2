package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/walletbook/walletbook/internal/ledger"
)

// FileStore keeps the snapshot in a single JSON file, the closest Go analog
// of the browser-local storage the original application used. It is the
// default driver.
type FileStore struct {
	path string
}

// NewFileStore prepares the containing directory and returns the store.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the snapshot file. A missing file means no snapshot yet.
func (s *FileStore) Load(_ context.Context) (ledger.Snapshot, bool, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ledger.Snapshot{}, false, nil
		}
		return ledger.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := decodeSnapshot(payload)
	if err != nil {
		return ledger.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save writes the snapshot through a temp file and rename so a crash mid-write
// never leaves a truncated snapshot behind.
func (s *FileStore) Save(_ context.Context, snap ledger.Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *FileStore) Close() error {
	return nil
}
