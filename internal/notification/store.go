// Package notification manages the lifecycle of notifications: it
// deduplicates incoming records, tracks their status, expires archived
// entries and persists the whole collection after every mutation.
//
// A Store is owned by a single goroutine. It does no locking of its own;
// callers that need to reach it from elsewhere must route through the
// owner (see internal/app).
package notification

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mediadash/internal/model"
	"github.com/nhle/mediadash/internal/store"
)

// DefaultExpiryWindow is how long an archived notification is kept.
const DefaultExpiryWindow = 24 * time.Hour

// Store is the authoritative in-memory notification collection, backed
// by a single persisted blob. Not-found mutations are silent no-ops and
// persistence failures are logged rather than returned.
type Store struct {
	blobs   store.BlobStore
	key     string
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
	window  time.Duration
	// readOnly stores keep every mutation in memory.
	readOnly bool

	// items is ordered newest-first by insertion.
	items   []*model.Notification
	unread  int
	lastErr error
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the blob key (default model.DefaultBlobKey).
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithExpiryWindow sets how long archived notifications are kept by
// Initialize and by sweeps called with a non-positive window.
func WithExpiryWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithReadOnly stops the store from writing the blob. Initialize still
// repairs and sweeps, but only the in-memory view reflects it.
func WithReadOnly() Option {
	return func(s *Store) {
		s.readOnly = true
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty Store persisting to blobs. Call Initialize to
// load previously saved notifications.
func New(blobs store.BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs:  blobs,
		key:    model.DefaultBlobKey,
		logger: zap.NewNop(),
		now:    time.Now,
		window: DefaultExpiryWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads persisted notifications, repairs duplicate email IDs,
// drops expired archived entries and recomputes the unread counter.
// A missing or malformed blob yields an empty collection.
func (s *Store) Initialize(ctx context.Context) {
	s.items = s.load(ctx)

	if removed := s.repairDuplicates(); removed > 0 {
		s.logger.Info("repaired duplicate notifications", zap.Int("removed", removed))
		s.metrics.deduplicated(removed)
		s.recompute()
		s.persist(ctx)
	}

	s.RunExpirySweep(ctx, s.now(), s.window)
	s.recompute()
}

// Add inserts n at the front of the collection. Any existing notification
// with the same non-empty email ID, or the same identifier, is replaced.
func (s *Store) Add(ctx context.Context, n model.Notification) {
	key := n.DedupKey()
	kept := s.items[:0:0]
	for _, existing := range s.items {
		if existing.ID == n.ID || (key != "" && existing.DedupKey() == key) {
			s.metrics.deduplicated(1)
			continue
		}
		kept = append(kept, existing)
	}

	added := n.Clone()
	s.items = append([]*model.Notification{&added}, kept...)
	s.recompute()
	s.persist(ctx)
}

// Remove deletes the notification with the given identifier, if any.
// It is also how a reclassification to JUNK or SKIPPED is applied.
func (s *Store) Remove(ctx context.Context, id string) {
	s.items = filter(s.items, func(n *model.Notification) bool {
		return n.ID != id
	})
	s.recompute()
	s.persist(ctx)
}

// Archive marks the notification dismissed and stamps the archive time.
// Archiving again refreshes the timestamp.
func (s *Store) Archive(ctx context.Context, id string) {
	n := s.find(id)
	if n == nil {
		return
	}
	now := s.now()
	n.Status = model.StatusDismissed
	n.ArchivedAt = &now
	s.recompute()
	s.persist(ctx)
}

// Restore moves an archived notification back to pending.
func (s *Store) Restore(ctx context.Context, id string) {
	n := s.find(id)
	if n == nil {
		return
	}
	n.Status = model.StatusPending
	n.ArchivedAt = nil
	s.recompute()
	s.persist(ctx)
}

// UpdateStatus sets the status only. ArchivedAt is left untouched, so a
// notification dismissed this way still shows in the active view.
// Any transition is allowed.
func (s *Store) UpdateStatus(ctx context.Context, id string, status model.NotificationStatus) {
	n := s.find(id)
	if n == nil {
		return
	}
	n.Status = status
	s.recompute()
	s.persist(ctx)
}

// Complete marks a request done and records when.
func (s *Store) Complete(ctx context.Context, id string) {
	n := s.find(id)
	if n == nil {
		return
	}
	now := s.now()
	n.Status = model.StatusCompleted
	n.CompletedAt = &now
	s.recompute()
	s.persist(ctx)
}

// ClearDismissed removes every dismissed notification, archived or not.
func (s *Store) ClearDismissed(ctx context.Context) {
	s.items = filter(s.items, func(n *model.Notification) bool {
		return n.Status != model.StatusDismissed
	})
	s.recompute()
	s.persist(ctx)
}

// ClearAll empties the collection.
func (s *Store) ClearAll(ctx context.Context) {
	s.items = nil
	s.recompute()
	s.persist(ctx)
}

// RunExpirySweep removes archived notifications whose archive time is
// older than now minus window. A non-positive window means the store's
// configured window. It persists only when something was removed and
// returns the number of notifications dropped.
func (s *Store) RunExpirySweep(ctx context.Context, now time.Time, window time.Duration) int {
	if window <= 0 {
		window = s.window
	}
	cutoff := now.Add(-window)

	before := len(s.items)
	s.items = filter(s.items, func(n *model.Notification) bool {
		return n.ArchivedAt == nil || !n.ArchivedAt.Before(cutoff)
	})
	removed := before - len(s.items)
	if removed == 0 {
		return 0
	}

	s.logger.Debug("expired archived notifications", zap.Int("removed", removed))
	s.metrics.expired(removed)
	s.recompute()
	s.persist(ctx)
	return removed
}

// RepairDuplicates keeps only the newest notification for each non-empty
// email ID, preserving the relative order of survivors. It persists when
// something changed and returns the number of notifications dropped.
// Running it again on a repaired collection is a no-op.
func (s *Store) RepairDuplicates(ctx context.Context) int {
	removed := s.repairDuplicates()
	if removed == 0 {
		return 0
	}
	s.metrics.deduplicated(removed)
	s.recompute()
	s.persist(ctx)
	return removed
}

// repairDuplicates filters s.items in place without persisting.
func (s *Store) repairDuplicates() int {
	seen := make(map[string]struct{}, len(s.items))
	before := len(s.items)

	// Items are newest-first, so the first occurrence is the newest one.
	s.items = filter(s.items, func(n *model.Notification) bool {
		key := n.DedupKey()
		if key == "" {
			return true
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})

	return before - len(s.items)
}

// UnreadCount returns the number of pending notifications.
func (s *Store) UnreadCount() int {
	return s.unread
}

// LastError returns the most recent persistence failure, or nil once a
// later write has succeeded. It is for diagnostics only.
func (s *Store) LastError() error {
	return s.lastErr
}

// find returns the live record with the given identifier.
func (s *Store) find(id string) *model.Notification {
	for _, n := range s.items {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// recompute refreshes derived counters from the live collection.
func (s *Store) recompute() {
	unread := 0
	for _, n := range s.items {
		if n.Status == model.StatusPending {
			unread++
		}
	}
	s.unread = unread
	s.metrics.observe(unread, len(s.items))
}

// persist rewrites the whole blob. Failures are kept for LastError and
// otherwise ignored; the in-memory collection stays authoritative.
func (s *Store) persist(ctx context.Context) {
	if s.readOnly {
		return
	}
	data, err := encode(s.items)
	if err == nil {
		err = s.blobs.Put(ctx, s.key, data)
	}
	if err != nil {
		s.lastErr = err
		s.metrics.persistFailed()
		s.logger.Warn("persisting notifications failed",
			zap.String("key", s.key),
			zap.Int("count", len(s.items)),
			zap.Error(err),
		)
		return
	}
	s.lastErr = nil
}

// load reads and decodes the blob, returning nil on any failure.
func (s *Store) load(ctx context.Context) []*model.Notification {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("loading notifications failed", zap.String("key", s.key), zap.Error(err))
		return nil
	}

	items, skipped, err := decode(data)
	if err != nil {
		s.logger.Warn("discarding malformed notification blob", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed notifications", zap.Int("skipped", skipped))
	}
	return items
}

// filter keeps the items for which keep returns true, in order.
func filter(items []*model.Notification, keep func(*model.Notification) bool) []*model.Notification {
	out := items[:0]
	for _, n := range items {
		if keep(n) {
			out = append(out, n)
		}
	}
	for i := len(out); i < len(items); i++ {
		items[i] = nil
	}
	return out
}
