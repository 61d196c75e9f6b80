package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/mediadash/internal/model"
)

const (
	spoolSuffix = ".json"
	// rejectedSuffix is appended to spool files that could not be decoded.
	rejectedSuffix = ".rejected"
	// claimedSuffix marks files handed out by Fetch but not yet acked.
	claimedSuffix = ".claimed"
)

// SpoolSource picks up notifications that the classification service
// drops into a directory, one JSON-encoded model.Params per *.json file.
//
// Fetch claims files by renaming them with a ".claimed" suffix and the
// batch's Ack deletes them. Claimed files left behind by a process that
// stopped before acking are put back when the source is opened.
// Undecodable files are renamed with a ".rejected" suffix so they are not
// retried.
type SpoolSource struct {
	dir    string
	logger *zap.Logger
}

// NewSpoolSource creates dir if needed, requeues claimed files and
// returns a source reading it.
func NewSpoolSource(dir string, logger *zap.Logger) (*SpoolSource, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating spool directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SpoolSource{dir: dir, logger: logger}
	if err := s.requeue(); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns "spool".
func (s *SpoolSource) Name() string {
	return "spool"
}

// Fetch claims every pending spool file in name order.
func (s *SpoolSource) Fetch(ctx context.Context) (Batch, error) {
	names, err := s.list(spoolSuffix)
	if err != nil {
		return Batch{}, err
	}

	var (
		out     []model.Params
		claimed []string
	)
	ack := func() error {
		for _, path := range claimed {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("consuming spool file %s: %w", filepath.Base(path), err)
			}
		}
		return nil
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return NewBatch(out, ack), err
		}

		path := filepath.Join(s.dir, name)
		p, err := readParams(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			s.logger.Warn("rejecting spool file", zap.String("file", name), zap.Error(err))
			if rerr := os.Rename(path, path+rejectedSuffix); rerr != nil {
				return NewBatch(out, ack), fmt.Errorf("rejecting spool file %s: %w", name, rerr)
			}
			continue
		}

		if err := os.Rename(path, path+claimedSuffix); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return NewBatch(out, ack), fmt.Errorf("claiming spool file %s: %w", name, err)
		}
		claimed = append(claimed, path+claimedSuffix)
		out = append(out, p)
	}

	if len(out) == 0 {
		return Batch{}, nil
	}
	return NewBatch(out, ack), nil
}

// requeue puts claimed files back into the spool.
func (s *SpoolSource) requeue() error {
	names, err := s.list(spoolSuffix + claimedSuffix)
	if err != nil {
		return err
	}
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		if err := os.Rename(path, strings.TrimSuffix(path, claimedSuffix)); err != nil {
			return fmt.Errorf("requeueing spool file %s: %w", name, err)
		}
	}
	if len(names) > 0 {
		s.logger.Info("requeued unacknowledged spool files", zap.Int("count", len(names)))
	}
	return nil
}

// list returns the sorted names of regular files ending in suffix.
func (s *SpoolSource) list(suffix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading spool directory %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Enqueue writes p into the spool directory dir for the running watch
// loop to pick up, and returns the file name. The file appears
// atomically, so a concurrent Fetch never reads it half-written.
func Enqueue(dir string, p model.Params) (string, error) {
	if _, err := checkParams(p); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating spool directory %s: %w", dir, err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding params: %w", err)
	}

	name := fmt.Sprintf("%020d-%s%s", enqueueStamp(), uuid.NewString(), spoolSuffix)
	tmp, err := os.CreateTemp(dir, ".enqueue-*")
	if err != nil {
		return "", fmt.Errorf("creating spool file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing spool file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing spool file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("publishing spool file: %w", err)
	}
	return name, nil
}

var (
	stampMu   sync.Mutex
	lastStamp int64
)

// enqueueStamp returns the current time in nanoseconds, strictly
// increasing within the process so spool names keep enqueue order.
func enqueueStamp() int64 {
	stampMu.Lock()
	defer stampMu.Unlock()

	now := time.Now().UnixNano()
	if now <= lastStamp {
		now = lastStamp + 1
	}
	lastStamp = now
	return now
}

// readParams decodes and checks a single spool file.
func readParams(path string) (model.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Params{}, err
	}

	var p model.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Params{}, fmt.Errorf("decoding params: %w", err)
	}
	return checkParams(p)
}

func checkParams(p model.Params) (model.Params, error) {
	if !p.Type.Valid() {
		return model.Params{}, fmt.Errorf("unknown notification type %q", p.Type)
	}
	if p.Type.IsReclassification() {
		return model.Params{}, fmt.Errorf("type %s cannot be ingested", p.Type)
	}
	if strings.TrimSpace(p.Title) == "" {
		return model.Params{}, errors.New("missing title")
	}
	return p, nil
}
