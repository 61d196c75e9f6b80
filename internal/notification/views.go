package notification

import (
	"sort"

	"github.com/nhle/mediadash/internal/model"
)

// Get returns a copy of the notification with the given identifier.
func (s *Store) Get(id string) (model.Notification, bool) {
	n := s.find(id)
	if n == nil {
		return model.Notification{}, false
	}
	return n.Clone(), true
}

// Len returns the number of notifications held.
func (s *Store) Len() int {
	return len(s.items)
}

// All returns copies of every notification, newest first.
func (s *Store) All() []model.Notification {
	return s.view(func(*model.Notification) bool { return true })
}

// Pending returns unread notifications, newest first.
func (s *Store) Pending() []model.Notification {
	return s.view(func(n *model.Notification) bool {
		return n.Status == model.StatusPending
	})
}

// Archived returns archived notifications, most recently archived first.
func (s *Store) Archived() []model.Notification {
	out := s.view(func(n *model.Notification) bool {
		return n.IsArchived()
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ArchivedAt.After(*out[j].ArchivedAt)
	})
	return out
}

// Active returns everything that is not archived, newest first.
// A notification dismissed through UpdateStatus has no archive time and
// is therefore still active.
func (s *Store) Active() []model.Notification {
	return s.view(func(n *model.Notification) bool {
		return !n.IsArchived()
	})
}

func (s *Store) view(keep func(*model.Notification) bool) []model.Notification {
	out := make([]model.Notification, 0, len(s.items))
	for _, n := range s.items {
		if keep(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}
