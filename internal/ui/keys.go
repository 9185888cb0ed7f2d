package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	TogglePause key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding

	// Tabs
	ViewQueue         key.Binding
	ViewHistory       key.Binding
	ViewNotifications key.Binding
	ViewLog           key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Actions
	CancelItem  key.Binding
	MarkSeen    key.Binding
	MarkAllSeen key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		TogglePause: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "Pause/resume downloads"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab", "Next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab", "Previous tab"),
		),

		ViewQueue: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Queue"),
		),
		ViewHistory: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "History"),
		),
		ViewNotifications: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Notifications"),
		),
		ViewLog: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Log"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "Up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "Down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Bottom"),
		),

		CancelItem: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Cancel selected download"),
		),
		MarkSeen: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Mark notification seen"),
		),
		MarkAllSeen: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Mark all seen"),
		),
	}
}

// helpSections groups bindings for the help overlay.
func (k keyMap) helpSections() []helpSection {
	return []helpSection{
		{title: "Tabs", keys: []key.Binding{k.ViewQueue, k.ViewHistory, k.ViewNotifications, k.ViewLog, k.NextTab, k.PrevTab}},
		{title: "Navigation", keys: []key.Binding{k.Up, k.Down, k.Top, k.Bottom}},
		{title: "Actions", keys: []key.Binding{k.TogglePause, k.CancelItem, k.MarkSeen, k.MarkAllSeen}},
		{title: "General", keys: []key.Binding{k.CycleTheme, k.Help, k.Quit}},
	}
}
