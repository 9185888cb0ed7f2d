package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("queuewatch", styles.Logo)}

	snap := m.snap.state
	switch {
	case !snap.Connected:
		parts = append(parts, bg.Render("● "+connectionLabel(snap.LastError), styles.DangerText))
		parts = append(parts, bg.Render("Reconnecting...", styles.WarningText.Bold(true)))
		if !snap.LastUpdated.IsZero() {
			parts = append(parts, bg.Render("last update "+snap.LastUpdated.Format("15:04:05"), styles.MutedText))
		}
	case !snap.Synced:
		parts = append(parts, bg.Render("● SYNCING", styles.WarningText))
	default:
		parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
	}

	if m.snap.server.Paused {
		parts = append(parts, bg.Render("PAUSED", styles.WarningText.Bold(true)))
	}

	active := 0
	for _, item := range m.snap.queue {
		if statusOf(item) == "downloading" {
			active++
		}
	}
	counts := []struct {
		label string
		value int
	}{
		{"Queue:", len(m.snap.queue)},
		{"Active:", active},
		{"History:", len(m.snap.done)},
	}
	for _, c := range counts {
		parts = append(parts, bg.Render(c.label, styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", c.value), styles.Text))
	}
	if m.snap.unseen > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d new", m.snap.unseen), styles.AccentText))
	}
	if v := m.snap.server.App.Version; v != "" && m.width >= 100 {
		parts = append(parts, bg.Render("v"+v, styles.FaintText))
	}
	if m.serverURL != "" && m.width >= 120 {
		parts = append(parts, bg.Render(truncateMiddle(m.serverURL, 40), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// connectionLabel maps the last transport error onto a short badge.
func connectionLabel(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	case strings.Contains(msg, "bad handshake"):
		return "HANDSHAKE FAILED"
	default:
		return "ERROR"
	}
}

// renderTabBar renders the tab selector.
func (m Model) renderTabBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.SurfaceAlt)

	var parts []string
	for t := Tab(0); t < tabCount; t++ {
		label := fmt.Sprintf(" %d %s ", int(t)+1, t)
		if t == TabNotifications && m.snap.unseen > 0 {
			label = fmt.Sprintf(" %d %s (%d) ", int(t)+1, t, m.snap.unseen)
		}
		if t == m.tab {
			parts = append(parts, styles.Selected.Bold(true).Render(label))
		} else {
			parts = append(parts, bg.Render(label, styles.MutedText))
		}
	}
	return bg.FillLine(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
}

// renderFooter renders command hints, or the last command failure.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	if m.flash != "" {
		return styles.Footer.Width(m.width).Render(bg.Render(truncate(m.flash, m.width-2), styles.DangerText))
	}

	pauseLabel := "Pause"
	if m.snap.server.Paused {
		pauseLabel = "Resume"
	}
	hints := []struct{ key, desc string }{
		{"tab", "Switch"},
		{"j/k", "Move"},
		{"P", pauseLabel},
	}
	switch m.tab {
	case TabQueue:
		hints = append(hints, struct{ key, desc string }{"x", "Cancel"})
	case TabNotifications:
		hints = append(hints, struct{ key, desc string }{"n/N", "Seen/All"})
	}
	hints = append(hints,
		struct{ key, desc string }{"T", m.theme.Name},
		struct{ key, desc string }{"?", "Help"},
		struct{ key, desc string }{"q", "Quit"},
	)

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, bg.Render(h.key, styles.AccentText)+bg.Space()+bg.Render(h.desc, styles.MutedText))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(parts, "  "))
}
