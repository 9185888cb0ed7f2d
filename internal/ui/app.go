package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/logtail"
	"github.com/queuewatch/queuewatch/internal/notify"
	"github.com/queuewatch/queuewatch/internal/prefs"
	"github.com/queuewatch/queuewatch/internal/state"
)

const logTailLines = 500

// Tab is the active content tab.
type Tab int

const (
	TabQueue Tab = iota
	TabHistory
	TabNotifications
	TabLog
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabQueue:
		return "Queue"
	case TabHistory:
		return "History"
	case TabNotifications:
		return "Notifications"
	case TabLog:
		return "Log"
	default:
		return "?"
	}
}

// ParseTab maps a tab name back to a Tab, defaulting to the queue.
func ParseTab(name string) Tab {
	for t := Tab(0); t < tabCount; t++ {
		if strings.EqualFold(name, t.String()) {
			return t
		}
	}
	return TabQueue
}

// Emitter sends commands to the backend over the realtime connection.
type Emitter interface {
	Emit(ctx context.Context, event string, data any) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Server    *state.ServerConfig
	Notes     *notify.Store
	Emitter   Emitter
	ServerURL string
	Tick      time.Duration
	ThemeName string
	TabName   string
	PrefsPath string
	LogPath   string // shown in the Log tab; empty disables it
	Logger    *slog.Logger
}

// view is everything rendered in one frame, captured under the stores' locks.
type view struct {
	state  state.Snapshot
	server state.ServerSnapshot
	notes  []notify.Notification
	unseen int
	queue  []api.Item
	done   []api.Item
	logs   []string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     *state.Store
	server    *state.ServerConfig
	notes     *notify.Store
	emitter   Emitter
	serverURL string
	prefsPath string
	logPath   string
	tick      time.Duration
	log       *slog.Logger

	keys     keyMap
	theme    Theme
	tab      Tab
	width    int
	height   int
	ready    bool
	showHelp bool

	snap     view
	selected [tabCount]int
	flash    string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return Model{
		ctx:       ctx,
		store:     opts.Store,
		server:    opts.Server,
		notes:     opts.Notes,
		emitter:   opts.Emitter,
		serverURL: opts.ServerURL,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		tick:      tick,
		log:       log,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		tab:       ParseTab(opts.TabName),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.tick), m.fetchSnapshotCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchSnapshotCmd(), tickCmd(m.tick))

	case snapshotMsg:
		following := m.selected[TabLog] >= len(m.snap.logs)-1
		m.snap = view(msg)
		if following {
			m.selected[TabLog] = max(len(m.snap.logs)-1, 0)
		}
		m.clampSelection()
		return m, nil

	case emitResultMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("%s failed: %v", msg.event, msg.err)
		} else {
			m.flash = ""
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
	case key.Matches(msg, m.keys.TogglePause):
		return m, m.togglePause()
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
	case key.Matches(msg, m.keys.ViewQueue):
		m.tab = TabQueue
	case key.Matches(msg, m.keys.ViewHistory):
		m.tab = TabHistory
	case key.Matches(msg, m.keys.ViewNotifications):
		m.tab = TabNotifications
	case key.Matches(msg, m.keys.ViewLog):
		m.tab = TabLog
	case key.Matches(msg, m.keys.Up):
		if m.selected[m.tab] > 0 {
			m.selected[m.tab]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected[m.tab] < m.rowCount()-1 {
			m.selected[m.tab]++
		}
	case key.Matches(msg, m.keys.Top):
		m.selected[m.tab] = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected[m.tab] = max(m.rowCount()-1, 0)
	case key.Matches(msg, m.keys.CancelItem):
		return m, m.cancelSelected()
	case key.Matches(msg, m.keys.MarkSeen):
		return m, m.markSeen(false)
	case key.Matches(msg, m.keys.MarkAllSeen):
		return m, m.markSeen(true)
	}
	return m, nil
}

func (m Model) savePrefs() {
	p := prefs.Prefs{Theme: m.theme.Name, Tab: m.tab.String()}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Warn("prefs not saved", "path", m.prefsPath, "error", err)
	}
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabQueue:
		return len(m.snap.queue)
	case TabHistory:
		return len(m.snap.done)
	case TabNotifications:
		return len(m.snap.notes)
	case TabLog:
		return len(m.snap.logs)
	}
	return 0
}

func (m *Model) clampSelection() {
	saved := m.tab
	for t := Tab(0); t < tabCount; t++ {
		m.tab = t
		n := m.rowCount()
		if m.selected[t] >= n {
			m.selected[t] = max(n-1, 0)
		}
	}
	m.tab = saved
}

func (m Model) togglePause() tea.Cmd {
	event := "pause"
	if m.snap.server.Paused {
		event = "resume"
	}
	return m.emitCmd(event, nil)
}

func (m Model) cancelSelected() tea.Cmd {
	if m.tab != TabQueue || len(m.snap.queue) == 0 {
		return nil
	}
	item := m.snap.queue[m.selected[TabQueue]]
	return m.emitCmd("item_cancel", []string{item.ID})
}

func (m Model) markSeen(all bool) tea.Cmd {
	if m.notes == nil {
		return nil
	}
	if all {
		m.notes.MarkAllSeen()
	} else if m.tab == TabNotifications && len(m.snap.notes) > 0 {
		m.notes.MarkSeen(m.snap.notes[m.selected[TabNotifications]].ID)
	}
	return m.fetchSnapshotCmd()
}

func (m Model) emitCmd(event string, data any) tea.Cmd {
	if m.emitter == nil {
		return nil
	}
	ctx, emitter := m.ctx, m.emitter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return emitResultMsg{event: event, err: emitter.Emit(ctx, event, data)}
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg view

type emitResultMsg struct {
	event string
	err   error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshotCmd() tea.Cmd {
	store, server, notes, log := m.store, m.server, m.notes, m.log
	logPath := ""
	if m.tab == TabLog {
		logPath = m.logPath
	}
	return func() tea.Msg {
		v := capture(store, server, notes)
		if logPath != "" {
			lines, err := logtail.Read(logPath, logTailLines)
			if err != nil {
				log.Debug("log tail unavailable", "path", logPath, "error", err)
			}
			v.logs = lines
		}
		return snapshotMsg(v)
	}
}

func capture(store *state.Store, server *state.ServerConfig, notes *notify.Store) view {
	var v view
	if store != nil {
		v.state = store.Snapshot()
		v.queue = sortItems(v.state.Queue, false)
		v.done = sortItems(v.state.History, true)
	}
	if server != nil {
		v.server = server.Snapshot()
	}
	if notes != nil {
		v.notes = notes.List()
		v.unseen = notes.Unseen()
	}
	return v
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a state store")
	}
	opts.Context = ctx
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
