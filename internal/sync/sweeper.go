package sync

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// defaultSweepInterval is used when no interval is configured.
const defaultSweepInterval = 15 * time.Minute

// SweepMsg asks the store owner to run the archived-expiry sweep.
type SweepMsg struct {
	At time.Time
}

// Sweeper schedules periodic expiry sweeps. The sweep itself runs on the
// owner goroutine when it handles SweepMsg.
type Sweeper struct {
	interval time.Duration
}

// NewSweeper returns a Sweeper firing every interval.
func NewSweeper(interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{interval: interval}
}

// Interval returns the configured sweep interval.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Tick returns a command that emits a SweepMsg after one interval.
// Return it again from Update to keep sweeping.
func (s *Sweeper) Tick() tea.Cmd {
	return tea.Tick(s.interval, func(t time.Time) tea.Msg {
		return SweepMsg{At: t}
	})
}
