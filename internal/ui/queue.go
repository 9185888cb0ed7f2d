package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/notify"
)

const statusWidth = 16

// renderContent renders the active tab.
func (m Model) renderContent() string {
	height := m.contentHeight()
	styles := m.theme.Styles()

	var rows []string
	var empty string
	switch m.tab {
	case TabQueue:
		empty = "Nothing queued"
		rows = m.queueRows()
	case TabHistory:
		empty = "No finished downloads"
		rows = m.historyRows()
	case TabNotifications:
		empty = "No notifications"
		rows = m.notificationRows()
	case TabLog:
		empty = "Log is empty"
		rows = m.logRows()
	}

	if len(rows) == 0 {
		msg := styles.MutedText.Render(empty)
		if !m.snap.state.Synced && m.tab != TabLog {
			msg = styles.WarningText.Render("Waiting for the server snapshot...")
		}
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	sel := m.selected[m.tab]
	start := visibleStart(sel, len(rows), height)
	end := min(start+height, len(rows))

	lines := make([]string, 0, height)
	for i := start; i < end; i++ {
		line := rows[i]
		if i == sel {
			line = styles.Selected.Width(m.width).MaxHeight(1).Render(rows[i])
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) contentHeight() int {
	return max(m.height-3, 1)
}

// visibleStart returns the first row index that keeps sel on screen.
func visibleStart(sel, total, height int) int {
	if total <= height || sel < height {
		return 0
	}
	start := sel - height + 1
	return min(start, total-height)
}

func (m Model) queueRows() []string {
	styles := m.theme.Styles()
	titleWidth := max(m.width-statusWidth-30, 10)
	rows := make([]string, 0, len(m.snap.queue))
	for _, item := range m.snap.queue {
		status := statusOf(item)
		rows = append(rows, fmt.Sprintf("%s %7s %11s %8s  %s",
			styles.StatusStyle(status).Width(statusWidth).Render(status),
			formatPercent(item.Percent),
			formatSpeed(item.Speed),
			formatETA(item.ETADuration()),
			truncate(itemLabel(item), titleWidth),
		))
	}
	return rows
}

func (m Model) historyRows() []string {
	styles := m.theme.Styles()
	now := time.Now()
	titleWidth := max(m.width-statusWidth-16, 10)
	rows := make([]string, 0, len(m.snap.done))
	for _, item := range m.snap.done {
		status := statusOf(item)
		label := itemLabel(item)
		if item.Error != "" {
			label += "  " + styles.DangerText.Render(item.Error)
		}
		rows = append(rows, fmt.Sprintf("%s %12s  %s",
			styles.StatusStyle(status).Width(statusWidth).Render(status),
			formatTimestamp(item.AddedAt(), now),
			truncate(label, titleWidth),
		))
	}
	return rows
}

func (m Model) notificationRows() []string {
	styles := m.theme.Styles()
	now := time.Now()
	msgWidth := max(m.width-24, 10)
	rows := make([]string, 0, len(m.snap.notes))
	for _, n := range m.snap.notes {
		marker := " "
		if !n.Seen {
			marker = styles.AccentText.Render("●")
		}
		rows = append(rows, fmt.Sprintf("%s %s %9s  %s",
			marker,
			styles.LevelStyle(n.Level).Width(8).Render(levelLabel(n.Level)),
			humanizeDuration(now.Sub(n.Created)),
			truncate(n.Message, msgWidth),
		))
	}
	return rows
}

func (m Model) logRows() []string {
	styles := m.theme.Styles()
	rows := make([]string, 0, len(m.snap.logs))
	for _, line := range m.snap.logs {
		line = truncate(line, max(m.width, 10))
		switch {
		case strings.Contains(line, " ERR "):
			line = styles.DangerText.Render(line)
		case strings.Contains(line, " WRN "):
			line = styles.WarningText.Render(line)
		case strings.Contains(line, " DBG "):
			line = styles.MutedText.Render(line)
		}
		rows = append(rows, line)
	}
	return rows
}

func levelLabel(level notify.Level) string {
	return strings.ToUpper(level.String())
}

func itemLabel(item api.Item) string {
	switch {
	case item.Title != "":
		return item.Title
	case item.Filename != "":
		return item.Filename
	case item.URL != "":
		return item.URL
	default:
		return item.ID
	}
}
