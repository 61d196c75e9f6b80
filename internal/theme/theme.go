package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mediadash/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for table headers.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Padding(0, 1)

// CellStyle is the base style for table cells.
var CellStyle = lipgloss.NewStyle().
	Padding(0, 1)

// HelpStyle is used for keyboard shortcut hints and footers.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// StatusStyle returns a color-coded style for a notification status.
func StatusStyle(status model.NotificationStatus) lipgloss.Style {
	base := CellStyle.Bold(true)

	switch status {
	case model.StatusPending:
		return base.Foreground(ColorYellow)
	case model.StatusApproved:
		return base.Foreground(ColorBlue)
	case model.StatusCompleted:
		return base.Foreground(ColorGreen)
	case model.StatusDismissed:
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorWhite)
	}
}

// TypeStyle returns a color-coded style for a notification type.
func TypeStyle(t model.NotificationType) lipgloss.Style {
	switch t {
	case model.TypeNewDocket:
		return CellStyle.Foreground(ColorMagenta)
	case model.TypeFileDelivery:
		return CellStyle.Foreground(ColorBlue)
	case model.TypeRequest:
		return CellStyle.Foreground(ColorOrange)
	case model.TypeError:
		return CellStyle.Foreground(ColorRed)
	default:
		return CellStyle.Foreground(ColorGray)
	}
}
