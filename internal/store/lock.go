package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/nhle/mediadash/internal/model"
)

// ErrLocked is returned when another process owns the blob.
var ErrLocked = errors.New("notification store is owned by another process")

// Lock is an advisory, process-wide claim on a blob. Only the holder may
// write it; the operating system drops the claim if the process dies.
type Lock struct {
	fl *flock.Flock
}

// LockPath returns the lock file guarding the blob described by cfg, or
// "" for backends that are private to the process.
func LockPath(cfg model.StorageConfig) string {
	key := cfg.Key
	if key == "" {
		key = model.DefaultBlobKey
	}

	switch cfg.Backend {
	case model.BackendMemory:
		return ""
	case model.BackendSQLite:
		return cfg.Path + ".lock"
	default:
		dir := cfg.Path
		if dir == "" {
			dir = os.TempDir()
		}
		return filepath.Join(dir, key+".lock")
	}
}

// AcquireLock takes the lock at path without waiting. It fails with
// ErrLocked when another process holds it. An empty path yields a no-op
// lock.
func AcquireLock(path string) (*Lock, error) {
	if path == "" {
		return &Lock{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
	}
	return &Lock{fl: fl}, nil
}

// Release gives the lock up. It is safe to call on a nil or no-op lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
