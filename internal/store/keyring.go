package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/99designs/keyring"
)

const keyringServiceName = "mediadash"

// ErrNoPassphrase is returned when only the file backend could hold the
// blob but no passphrase was configured for it.
var ErrNoPassphrase = errors.New("keyring file backend requires a passphrase")

// KeyringStore implements BlobStore on top of the system keyring, so
// email previews held in notifications are encrypted at rest. When a
// passphrase is configured and no system keychain is reachable it falls
// back to a file backend under fileDir encrypted with that passphrase.
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringOption adjusts the keyring configuration.
type KeyringOption func(*keyring.Config)

// WithKeyringBackends restricts which keyring backends may be used.
func WithKeyringBackends(backends ...keyring.BackendType) KeyringOption {
	return func(c *keyring.Config) {
		c.AllowedBackends = backends
	}
}

// NewKeyringStore opens the keyring. fileDir and passphrase configure
// the encrypted file fallback, which is disabled without a passphrase.
func NewKeyringStore(fileDir, passphrase string, opts ...KeyringOption) (*KeyringStore, error) {
	cfg := keyring.Config{
		ServiceName: keyringServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(passphrase),
		KeychainTrustApplication: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if passphrase == "" {
		cfg.AllowedBackends = slices.DeleteFunc(slices.Clone(cfg.AllowedBackends), func(b keyring.BackendType) bool {
			return b == keyring.FileBackend
		})
		if len(cfg.AllowedBackends) == 0 {
			return nil, ErrNoPassphrase
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

// Get returns the blob stored under key.
func (k *KeyringStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting blob %q from keyring: %w", key, err)
	}
	return item.Data, nil
}

// Put replaces the blob stored under key.
func (k *KeyringStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := k.ring.Set(keyring.Item{
		Key:         key,
		Data:        data,
		Label:       "mediadash notifications",
		Description: "mediadash notification list",
	})
	if err != nil {
		return fmt.Errorf("setting blob %q in keyring: %w", key, err)
	}
	return nil
}

// Close is a no-op; the keyring holds no open handles.
func (k *KeyringStore) Close() error {
	return nil
}
