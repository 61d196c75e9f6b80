package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/mediadash/internal/notification"
	"github.com/nhle/mediadash/internal/store"
)

// NewSQLiteStore creates a SQLiteStore in a temporary directory with all
// migrations applied. It automatically closes the store when the test
// completes.
func NewSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Clock is a settable time source for notification stores.
type Clock struct {
	T time.Time
}

// NewClock returns a Clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{T: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	return c.T
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}

// NewNotificationStore returns an initialized notification store backed
// by a fresh MemoryStore and driven by clock.
func NewNotificationStore(
	t *testing.T,
	clock *Clock,
	opts ...notification.Option,
) (*notification.Store, *store.MemoryStore) {
	t.Helper()

	blobs := store.NewMemoryStore()
	opts = append([]notification.Option{notification.WithClock(clock.Now)}, opts...)
	s := notification.New(blobs, opts...)
	s.Initialize(context.Background())
	return s, blobs
}
