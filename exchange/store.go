package exchange

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// StateStore keeps the encoded bytes of the saved state.
type StateStore interface {
	// Load returns the saved bytes, or nil when nothing has been saved.
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, payload []byte) error
}

// MemoryStore is a StateStore held in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state []byte
}

func (m *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	return append([]byte(nil), m.state...), nil
}

func (m *MemoryStore) Store(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = append([]byte(nil), payload...)
	return nil
}

// stateTempPrefix is the prefix of temporary files written by FileStore.
const stateTempPrefix = "bdoc-state-"

// FileStore is a StateStore backed by a single file. A missing file means
// no saved state.
type FileStore struct {
	Path string
}

func (f FileStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

// Store replaces the file atomically by writing a temp file in the same
// directory and renaming it over the target.
func (f FileStore) Store(ctx context.Context, payload []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, stateTempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", f.Path, err)
	}
	return nil
}
