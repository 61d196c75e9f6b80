package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements BlobStore using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// blobRow mirrors a row of the blobs table.
type blobRow struct {
	Key       string    `db:"key"`
	Data      []byte    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
	Size      int       `db:"size"`
}

// NewSQLiteStore opens or creates the database at dbPath and migrates
// it. WAL journaling lets readers in other processes (a second CLI
// invocation) proceed while watch writes.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate brings the schema up to the latest version. Each pending
// migration runs in its own transaction so a failed step leaves the
// previous version intact.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'schema_version')",
	); err != nil {
		return fmt.Errorf("looking up schema_version: %w", err)
	}

	applied := 0
	if exists {
		v, err := s.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		applied = v
	}

	for _, m := range migrations {
		if m.version <= applied {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration v%d: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("applying migration v%d: %w", m.version, err)
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Get returns the blob stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, "SELECT data FROM blobs WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting blob %s: %w", key, err)
	}
	return data, nil
}

// Put inserts or replaces the blob stored under key.
func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte) error {
	if data == nil {
		data = []byte{}
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO blobs (key, data, updated_at, size)
		VALUES (:key, :data, :updated_at, :size)`,
		blobRow{
			Key:       key,
			Data:      data,
			UpdatedAt: time.Now().UTC(),
			Size:      len(data),
		},
	)
	if err != nil {
		return fmt.Errorf("putting blob %s: %w", key, err)
	}
	return nil
}
