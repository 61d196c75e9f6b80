package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/mediadash/internal/model"
	"github.com/nhle/mediadash/internal/source"
)

// SyncState represents the current state of a source poll.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "unknown"
	}
}

// SyncStatus holds the poll state for a single source.
type SyncStatus struct {
	Source   string
	State    SyncState
	LastSync time.Time
	Error    error
}

// IngestMsg is a tea.Msg carrying notifications fetched from a source.
// The owner of the notification store applies them and then calls Ack
// once they are saved.
type IngestMsg struct {
	Source string
	Params []model.Params
	Error  error

	ack func() error
}

// Ack releases the fetched notifications at their source.
func (m IngestMsg) Ack() error {
	if m.ack == nil {
		return nil
	}
	return m.ack()
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// defaultPollInterval is used when a source is registered without one.
const defaultPollInterval = 60 * time.Second

// sourceEntry holds a registered source, its poll interval and its
// manual refresh trigger.
type sourceEntry struct {
	src      source.Source
	interval time.Duration
	trigger  chan struct{}
}

// Poller polls registered sources in the background and hands results
// to the store owner as IngestMsg values. It never touches the store.
type Poller struct {
	sources   []sourceEntry
	statuses  map[string]*SyncStatus
	resultCh  chan IngestMsg
	stopCh    chan struct{}
	logger    *zap.Logger
	mu        gosync.Mutex
	running   bool
}

// NewPoller creates a Poller with no sources.
func NewPoller(logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		statuses:  make(map[string]*SyncStatus),
		resultCh:  make(chan IngestMsg, 16),
		stopCh:    make(chan struct{}),
		logger:    logger,
	}
}

// RegisterSource adds a source polled every interval.
func (p *Poller) RegisterSource(src source.Source, interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if interval <= 0 {
		interval = defaultPollInterval
	}
	p.sources = append(p.sources, sourceEntry{
		src:      src,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	})
	p.statuses[src.Name()] = &SyncStatus{
		Source: src.Name(),
		State:  SyncIdle,
	}
}

// Start launches a polling goroutine per source and returns a command
// that waits for the first result.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	sources := make([]sourceEntry, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	for _, entry := range sources {
		go p.pollSource(entry)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate poll of every registered source.
func (p *Poller) RefreshAll() {
	p.mu.Lock()
	sources := make([]sourceEntry, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	for _, entry := range sources {
		select {
		case entry.trigger <- struct{}{}:
		default:
			// A refresh is already pending for this source.
		}
	}
}

// GetStatuses returns the current status of all registered sources.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollSource runs the polling loop for a single source.
func (p *Poller) pollSource(entry sourceEntry) {
	ticker := time.NewTicker(entry.interval)
	defer ticker.Stop()

	p.fetch(entry)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetch(entry)
		case <-entry.trigger:
			p.fetch(entry)
		}
	}
}

// fetch performs one fetch and forwards non-empty results or errors.
func (p *Poller) fetch(entry sourceEntry) {
	name := entry.src.Name()
	p.setStatus(name, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	batch, err := entry.src.Fetch(ctx)
	msg := IngestMsg{Source: name, Params: batch.Params, Error: err, ack: batch.Ack}
	if err != nil {
		p.logger.Warn("fetching notifications failed", zap.String("source", name), zap.Error(err))
		p.setStatus(name, SyncError, err)
		p.sendResult(msg)
		return
	}

	p.setStatus(name, SyncIdle, nil)
	if len(batch.Params) == 0 {
		return
	}
	p.logger.Debug("fetched notifications", zap.String("source", name), zap.Int("count", len(batch.Params)))
	p.sendResult(msg)
}

// setStatus updates the status for a source.
func (p *Poller) setStatus(name string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[name]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult delivers msg, giving up when the poller is stopped. A
// result abandoned that way is never acknowledged, so its source offers
// it again on the next run.
func (p *Poller) sendResult(msg IngestMsg) {
	select {
	case p.resultCh <- msg:
	case <-p.stopCh:
		if len(msg.Params) > 0 {
			p.logger.Info("left fetched notifications for the next run",
				zap.String("source", msg.Source),
				zap.Int("count", len(msg.Params)),
			)
		}
	}
}

// waitForResult returns a tea.Cmd that waits for the next result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next result.
// Call it after handling an IngestMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
