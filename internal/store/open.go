package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/mediadash/internal/model"
)

// Open returns the BlobStore selected by cfg.Backend.
func Open(cfg model.StorageConfig) (BlobStore, error) {
	switch cfg.Backend {
	case model.BackendSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		return NewSQLiteStore(cfg.Path)
	case model.BackendFile:
		return NewFileStore(cfg.Path)
	case model.BackendKeyring:
		return NewKeyringStore(cfg.Path, cfg.Passphrase)
	case model.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
