package theme

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/mediadash/internal/model"
)

// Table column indexes.
const (
	colID = iota
	colType
	colStatus
	colCreated
	colTitle
	colMessage
)

// maxMessageWidth truncates long messages in listings.
const maxMessageWidth = 60

// NotificationTable renders items as a bordered table followed by the
// unread count.
func NotificationTable(items []model.Notification, unread int) string {
	rows := make([][]string, len(items))
	for i, n := range items {
		rows[i] = []string{
			n.ID,
			string(n.Type),
			string(n.Status),
			n.CreatedAt.Local().Format(time.DateTime),
			n.Title,
			truncate(n.Message, maxMessageWidth),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers("ID", "TYPE", "STATUS", "CREATED", "TITLE", "MESSAGE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			switch col {
			case colType:
				return TypeStyle(items[row].Type)
			case colStatus:
				return StatusStyle(items[row].Status)
			default:
				return CellStyle
			}
		})

	return t.Render() + "\n" + HelpStyle.Render(fmt.Sprintf("%d unread", unread)) + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
