package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/notify"
	"github.com/queuewatch/queuewatch/internal/prefs"
	"github.com/queuewatch/queuewatch/internal/state"
)

type emitted struct {
	event string
	data  any
}

type fakeEmitter struct {
	mu   sync.Mutex
	sent []emitted
	err  error
}

func (f *fakeEmitter) Emit(_ context.Context, event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, emitted{event: event, data: data})
	return f.err
}

type modelFixture struct {
	store   *state.Store
	server  *state.ServerConfig
	notes   *notify.Store
	emitter *fakeEmitter
	prefs   string
}

func newModelFixture(t *testing.T) (*modelFixture, Model) {
	t.Helper()
	f := &modelFixture{
		store:   state.NewStore(),
		server:  state.NewServerConfig(nil, nil),
		notes:   notify.New(),
		emitter: &fakeEmitter{},
		prefs:   filepath.Join(t.TempDir(), "prefs.toml"),
	}
	f.store.SetConnected(true)
	f.store.ReplaceAll(map[string]api.Item{
		"q1": {ID: "q1", Title: "first", Status: "downloading", Percent: 10, Timestamp: 1},
		"q2": {ID: "q2", Title: "second", Status: "pending", Timestamp: 2},
	}, map[string]api.Item{
		"h1": {ID: "h1", Title: "done", Status: "finished", Timestamp: 3},
	})
	m := New(Options{
		Store:     f.store,
		Server:    f.server,
		Notes:     f.notes,
		Emitter:   f.emitter,
		PrefsPath: f.prefs,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f, refresh(t, m)
}

func refresh(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(m.fetchSnapshotCmd()())
	return next.(Model)
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_PauseTogglesByServerState(t *testing.T) {
	f, m := newModelFixture(t)

	m, cmd := press(t, m, "P")
	if cmd == nil {
		t.Fatalf("P returned no command")
	}
	m2, _ := m.Update(cmd())
	m = m2.(Model)

	f.server.SetPaused(true)
	m = refresh(t, m)
	_, cmd = press(t, m, "P")
	cmd()

	if len(f.emitter.sent) != 2 || f.emitter.sent[0].event != "pause" || f.emitter.sent[1].event != "resume" {
		t.Fatalf("emitted = %+v, want pause then resume", f.emitter.sent)
	}
}

func TestModel_CancelEmitsSelectedQueueItem(t *testing.T) {
	f, m := newModelFixture(t)

	m, _ = press(t, m, "j")
	_, cmd := press(t, m, "x")
	if cmd == nil {
		t.Fatalf("x returned no command")
	}
	cmd()

	if len(f.emitter.sent) != 1 {
		t.Fatalf("emitted = %+v", f.emitter.sent)
	}
	sent := f.emitter.sent[0]
	ids, ok := sent.data.([]string)
	if sent.event != "item_cancel" || !ok || len(ids) != 1 || ids[0] != "q2" {
		t.Fatalf("emitted %+v, want item_cancel [q2]", sent)
	}
}

func TestModel_EmitFailureShowsInFooter(t *testing.T) {
	f, m := newModelFixture(t)
	f.emitter.err = errors.New("not connected")

	m, cmd := press(t, m, "P")
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !strings.Contains(m.flash, "pause failed") {
		t.Fatalf("flash = %q", m.flash)
	}
}

func TestModel_TabsAndSelection(t *testing.T) {
	_, m := newModelFixture(t)

	m, _ = press(t, m, "G")
	if m.selected[TabQueue] != 1 {
		t.Fatalf("bottom selection = %d, want 1", m.selected[TabQueue])
	}
	m, _ = press(t, m, "j")
	if m.selected[TabQueue] != 1 {
		t.Fatalf("selection moved past the end")
	}

	m, _ = press(t, m, "tab")
	if m.tab != TabHistory {
		t.Fatalf("tab = %v, want History", m.tab)
	}
	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "tab")
	if m.tab != TabQueue {
		t.Fatalf("tab = %v, want wrap to Queue", m.tab)
	}
	m, _ = press(t, m, "3")
	if m.tab != TabNotifications {
		t.Fatalf("tab = %v, want Notifications", m.tab)
	}
}

func TestModel_LogTabFollowsTail(t *testing.T) {
	_, m := newModelFixture(t)
	m.logPath = filepath.Join(t.TempDir(), "queuewatch.log")
	if err := os.WriteFile(m.logPath, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m = refresh(t, m)
	if len(m.snap.logs) != 0 {
		t.Fatalf("log read outside the Log tab: %v", m.snap.logs)
	}

	m, _ = press(t, m, "4")
	m = refresh(t, m)
	if len(m.snap.logs) != 3 || m.selected[TabLog] != 2 {
		t.Fatalf("logs = %v, selected = %d", m.snap.logs, m.selected[TabLog])
	}

	if err := os.WriteFile(m.logPath, []byte("a\nb\nc\nd ERR boom\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m = refresh(t, m)
	if m.selected[TabLog] != 3 {
		t.Fatalf("selection did not follow the tail: %d", m.selected[TabLog])
	}

	m, _ = press(t, m, "g")
	m = refresh(t, m)
	if m.selected[TabLog] != 0 {
		t.Fatalf("scrolled-up selection moved: %d", m.selected[TabLog])
	}
}

func TestModel_MarkSeen(t *testing.T) {
	f, m := newModelFixture(t)
	f.notes.Info("one")
	f.notes.Info("two")
	m = refresh(t, m)
	if m.snap.unseen != 2 {
		t.Fatalf("unseen = %d, want 2", m.snap.unseen)
	}

	m, _ = press(t, m, "3")
	_, cmd := press(t, m, "n")
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.snap.unseen != 1 {
		t.Fatalf("unseen after n = %d, want 1", m.snap.unseen)
	}
	if !f.notes.List()[0].Seen {
		t.Fatalf("selected (newest) notification not marked seen")
	}

	_, cmd = press(t, m, "N")
	cmd()
	if f.notes.Unseen() != 0 {
		t.Fatalf("unseen after N = %d, want 0", f.notes.Unseen())
	}
}

func TestModel_ThemeCyclePersists(t *testing.T) {
	f, m := newModelFixture(t)

	m, _ = press(t, m, "2")
	m, _ = press(t, m, "T")
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(f.prefs)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" || saved.Tab != "History" {
		t.Fatalf("saved prefs = %+v", saved)
	}
}

func TestModel_QuitAndView(t *testing.T) {
	_, m := newModelFixture(t)
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View before size = %q", got)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	m = next.(Model)
	out := m.View()
	for _, want := range []string{"queuewatch", "LIVE", "first", "second"} {
		if !strings.Contains(out, want) {
			t.Fatalf("View missing %q", want)
		}
	}

	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatalf("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q did not quit")
	}
}

func TestParseTab(t *testing.T) {
	if ParseTab("history") != TabHistory || ParseTab("bogus") != TabQueue {
		t.Fatalf("ParseTab mismatch")
	}
}
