// Package app runs the single goroutine that owns the notification
// store. Background work (source polling, sweep timers) reaches the store
// only through tea.Msg values handled in Update.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/mediadash/internal/keys"
	"github.com/nhle/mediadash/internal/model"
	"github.com/nhle/mediadash/internal/notification"
	appsync "github.com/nhle/mediadash/internal/sync"
)

// Model is the root Bubble Tea model. It renders nothing; presentation
// lives elsewhere.
type Model struct {
	store   *notification.Store
	poller  *appsync.Poller
	sweeper *appsync.Sweeper
	window  time.Duration
	keys    *keys.KeyMap
	logger  *zap.Logger
	now     func() time.Time
}

// New creates the owner model. The store must already be initialized and
// must not be used by any other goroutine afterwards.
func New(
	s *notification.Store,
	p *appsync.Poller,
	sw *appsync.Sweeper,
	window time.Duration,
	logger *zap.Logger,
) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		store:   s,
		poller:  p,
		sweeper: sw,
		window:  window,
		keys:    keys.DefaultKeyMap(),
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock returns a copy of m that stamps new notifications and manual
// sweeps with now.
func (m Model) WithClock(now func() time.Time) Model {
	m.now = now
	return m
}

// Init starts polling and schedules the first sweep.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.poller.Start(),
		m.sweeper.Tick(),
	)
}

// sweepNowMsg runs a sweep without rescheduling the timer.
type sweepNowMsg struct {
	at time.Time
}

// Update applies ingestion results and sweep ticks to the store.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case appsync.IngestMsg:
		if msg.Error != nil {
			m.logger.Warn("ingestion error", zap.String("source", msg.Source), zap.Error(msg.Error))
		}
		for _, p := range msg.Params {
			n := model.NewNotification(p, m.now())
			m.store.Add(ctx, n)
			m.logger.Info("notification added",
				zap.String("id", n.ID),
				zap.String("type", string(n.Type)),
				zap.String("title", n.Title),
			)
		}
		if len(msg.Params) > 0 {
			m.logger.Debug("unread notifications", zap.Int("count", m.store.UnreadCount()))
			m.ack(msg)
		}
		return m, m.poller.WaitForNextResult()

	case appsync.SweepMsg:
		m.sweep(ctx, msg.At)
		return m, m.sweeper.Tick()

	case sweepNowMsg:
		m.sweep(ctx, msg.at)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.poller.Stop()
			m.logStatuses()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Status):
			m.logStatuses()
		case key.Matches(msg, m.keys.Refresh):
			m.poller.RefreshAll()
		case key.Matches(msg, m.keys.Sweep):
			return m, func() tea.Msg { return sweepNowMsg{at: m.now()} }
		}
	}

	return m, nil
}

// ack releases an ingested batch at its source once it is saved. An
// unsaved batch stays claimed so the source offers it again next run.
func (m Model) ack(msg appsync.IngestMsg) {
	if err := m.store.LastError(); err != nil {
		m.logger.Warn("keeping ingested notifications at source until they are saved",
			zap.String("source", msg.Source),
			zap.Error(err),
		)
		return
	}
	if err := msg.Ack(); err != nil {
		m.logger.Warn("acknowledging ingested notifications failed",
			zap.String("source", msg.Source),
			zap.Error(err),
		)
	}
}

// logStatuses reports the poll state of every source.
func (m Model) logStatuses() {
	for _, st := range m.poller.GetStatuses() {
		fields := []zap.Field{
			zap.String("source", st.Source),
			zap.Stringer("state", st.State),
			zap.Int("unread", m.store.UnreadCount()),
		}
		if !st.LastSync.IsZero() {
			fields = append(fields, zap.Time("last_sync", st.LastSync))
		}
		if st.Error != nil {
			fields = append(fields, zap.Error(st.Error))
		}
		m.logger.Info("source status", fields...)
	}
}

func (m Model) sweep(ctx context.Context, at time.Time) {
	if removed := m.store.RunExpirySweep(ctx, at, m.window); removed > 0 {
		m.logger.Info("expired archived notifications", zap.Int("removed", removed))
	}
}

// Help describes the keybindings for interactive sessions.
func (m Model) Help() string {
	return m.keys.Help()
}

// View renders nothing.
func (m Model) View() string {
	return ""
}
