package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/mediadash/internal/model"
)

// blobVersion is the current layout of the persisted blob.
const blobVersion = 1

// blob is the persisted form of the collection.
type blob struct {
	Version       int                  `json:"version"`
	Notifications []model.Notification `json:"notifications"`
}

// rawBlob defers decoding of individual records so one bad record does
// not discard the rest.
type rawBlob struct {
	Version       int               `json:"version"`
	Notifications []json.RawMessage `json:"notifications"`
}

// encode serializes items in collection order.
func encode(items []*model.Notification) ([]byte, error) {
	b := blob{
		Version:       blobVersion,
		Notifications: make([]model.Notification, 0, len(items)),
	}
	for _, n := range items {
		b.Notifications = append(b.Notifications, *n)
	}

	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding notifications: %w", err)
	}
	return data, nil
}

// decode parses a persisted blob. A bare JSON array of notifications is
// also accepted. Records that fail to parse or validate are skipped and
// counted; action toggles are reset to their defaults.
func decode(data []byte) ([]*model.Notification, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, errors.New("empty blob")
	}

	var raw rawBlob
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raw.Notifications); err != nil {
			return nil, 0, fmt.Errorf("decoding notification list: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, 0, fmt.Errorf("decoding notification blob: %w", err)
		}
		if raw.Version > blobVersion {
			return nil, 0, fmt.Errorf("unsupported blob version %d", raw.Version)
		}
	}

	items := make([]*model.Notification, 0, len(raw.Notifications))
	ids := make(map[string]struct{}, len(raw.Notifications))
	skipped := 0

	for _, rec := range raw.Notifications {
		var n model.Notification
		if err := json.Unmarshal(rec, &n); err != nil {
			skipped++
			continue
		}
		if err := validate(n); err != nil {
			skipped++
			continue
		}
		if _, dup := ids[n.ID]; dup {
			skipped++
			continue
		}
		ids[n.ID] = struct{}{}

		if len(n.FileLinkDescriptions) != len(n.FileLinks) {
			n.FileLinkDescriptions = nil
		}
		n.ShouldCreateWorkPicture = true
		n.ShouldCreateSimianJob = false

		items = append(items, &n)
	}

	return items, skipped, nil
}

// validate checks a decoded record for values the store relies on.
func validate(n model.Notification) error {
	if n.ID == "" {
		return errors.New("missing id")
	}
	if !n.Type.Valid() {
		return fmt.Errorf("unknown type %q", n.Type)
	}
	if !n.Status.Valid() {
		return fmt.Errorf("unknown status %q", n.Status)
	}
	return nil
}
