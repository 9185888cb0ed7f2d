// Package notify keeps the bounded, persisted log of user-facing notices.
package notify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultLimit is the number of notices kept; older ones are evicted.
const DefaultLimit = 99

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

var levelNames = [...]string{
	LevelInfo:    "info",
	LevelSuccess: "success",
	LevelWarning: "warning",
	LevelError:   "error",
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel maps a level name to a Level. "warn" is accepted for warning.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warn" {
		return LevelWarning, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown notification level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Notification is a single notice.
type Notification struct {
	ID      string    `toml:"id"`
	Message string    `toml:"message"`
	Level   Level     `toml:"level"`
	Seen    bool      `toml:"seen"`
	Created time.Time `toml:"created"`
}

type logFile struct {
	Notifications []Notification `toml:"notification"`
}

// Store holds notices newest first. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []Notification
	limit int
	path  string
	now   func() time.Time

	saveMu sync.Mutex
	dirty  atomic.Bool

	subMu sync.Mutex
	subs  []func(Notification)
}

// Option customizes a Store.
type Option func(*Store)

// WithLimit overrides DefaultLimit.
func WithLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an in-memory store.
func New(opts ...Option) *Store {
	s := &Store{limit: DefaultLimit, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the log at path. Later changes are written back by Flush, Run or
// Save rather than on every change. A missing or unreadable file yields an
// empty log.
func Open(path string, opts ...Option) *Store {
	s := New(opts...)
	s.path = path
	items, err := load(path)
	if err != nil {
		slog.Warn("notification log unreadable, starting empty", "path", path, "error", err)
	}
	if len(items) > s.limit {
		items = items[:s.limit]
	}
	s.items = items
	return s
}

func load(path string) ([]Notification, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open notification log: %w", err)
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read notification log: %w", err)
	}
	var lf logFile
	if err := toml.Unmarshal(raw, &lf); err != nil {
		return nil, fmt.Errorf("parse notification log: %w", err)
	}
	slices.SortStableFunc(lf.Notifications, func(a, b Notification) int {
		return b.Created.Compare(a.Created)
	})
	return lf.Notifications, nil
}

// Subscribe registers fn to be called after every Add.
func (s *Store) Subscribe(fn func(Notification)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

// Add records a notice and returns it.
func (s *Store) Add(level Level, message string) Notification {
	n := Notification{
		ID:      newID(),
		Message: message,
		Level:   level,
		Created: s.now(),
	}

	s.mu.Lock()
	s.items = slices.Insert(s.items, 0, n)
	if len(s.items) > s.limit {
		s.items = s.items[:s.limit]
	}
	s.mu.Unlock()
	s.persist()

	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(n)
	}
	return n
}

// Info records an info notice.
func (s *Store) Info(message string) Notification { return s.Add(LevelInfo, message) }

// Success records a success notice.
func (s *Store) Success(message string) Notification { return s.Add(LevelSuccess, message) }

// Warning records a warning notice.
func (s *Store) Warning(message string) Notification { return s.Add(LevelWarning, message) }

// Error records an error notice.
func (s *Store) Error(message string) Notification { return s.Add(LevelError, message) }

// List returns the notices, newest first.
func (s *Store) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of notices held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Unseen counts notices not yet marked seen.
func (s *Store) Unseen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		if !item.Seen {
			n++
		}
	}
	return n
}

// MarkSeen flags one notice as seen. Unknown ids are ignored.
func (s *Store) MarkSeen(id string) bool {
	s.mu.Lock()
	i := slices.IndexFunc(s.items, func(n Notification) bool { return n.ID == id })
	if i >= 0 {
		s.items[i].Seen = true
	}
	s.mu.Unlock()
	if i < 0 {
		return false
	}
	s.persist()
	return true
}

// MarkAllSeen flags every notice as seen.
func (s *Store) MarkAllSeen() {
	s.mu.Lock()
	for i := range s.items {
		s.items[i].Seen = true
	}
	s.mu.Unlock()
	s.persist()
}

// Remove deletes one notice.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	before := len(s.items)
	s.items = slices.DeleteFunc(s.items, func(n Notification) bool { return n.ID == id })
	removed := len(s.items) != before
	s.mu.Unlock()
	if removed {
		s.persist()
	}
	return removed
}

// Clear deletes every notice.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	s.persist()
}

// Save writes the log to its file. It is a no-op for in-memory stores.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.dirty.Store(false)

	s.mu.RLock()
	lf := logFile{Notifications: slices.Clone(s.items)}
	s.mu.RUnlock()

	raw, err := toml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshal notification log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create notification dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write notification log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace notification log: %w", err)
	}
	return nil
}

func (s *Store) persist() {
	if s.path != "" {
		s.dirty.Store(true)
	}
}

// Flush saves the log if it changed since the last write.
func (s *Store) Flush() error {
	if !s.dirty.Swap(false) {
		return nil
	}
	if err := s.Save(); err != nil {
		s.dirty.Store(true)
		return err
	}
	return nil
}

// Run flushes pending changes every interval until ctx is cancelled, then
// flushes once more. Bursts of notices cost one write per interval.
func (s *Store) Run(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return s.Flush()
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				slog.Warn("notification log not saved", "path", s.path, "error", err)
			}
		}
	}
}

func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
