package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/queuewatch/queuewatch/internal/api"
)

// Collection names one of the two keyed item collections.
type Collection int

const (
	Queue Collection = iota
	History
)

func (c Collection) String() string {
	switch c {
	case Queue:
		return "queue"
	case History:
		return "history"
	default:
		return fmt.Sprintf("collection(%d)", int(c))
	}
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Queue       map[string]api.Item
	History     map[string]api.Item
	Connected   bool
	Synced      bool // a full snapshot has been applied on the current connection
	LastUpdated time.Time
	LastError   error
}

// Store owns the queue and history collections. The zero value is ready to use.
type Store struct {
	mu          sync.RWMutex
	queue       map[string]api.Item
	history     map[string]api.Item
	connected   bool
	synced      bool
	lastUpdated time.Time
	lastError   error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) coll(c Collection) map[string]api.Item {
	switch c {
	case Queue:
		if s.queue == nil {
			s.queue = make(map[string]api.Item)
		}
		return s.queue
	case History:
		if s.history == nil {
			s.history = make(map[string]api.Item)
		}
		return s.history
	default:
		panic(fmt.Sprintf("state: unknown %s", c))
	}
}

func (s *Store) touch() {
	s.lastUpdated = time.Now()
}

// Add inserts or overwrites the item stored under id.
func (s *Store) Add(c Collection, id string, item api.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coll(c)[id] = item.Clone()
	s.touch()
}

// Update is the same upsert primitive as Add.
func (s *Store) Update(c Collection, id string, item api.Item) {
	s.Add(c, id, item)
}

// Remove deletes id from c. Absent ids are a no-op. It reports whether a key
// was removed.
func (s *Store) Remove(c Collection, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.coll(c)
	if _, ok := m[id]; !ok {
		return false
	}
	delete(m, id)
	s.touch()
	return true
}

// Move relocates id from one collection to another under a single lock, so no
// reader observes the item in both or neither. It reports false when id is not
// in from.
func (s *Store) Move(from, to Collection, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.coll(from)
	item, ok := src[id]
	if !ok {
		return false
	}
	delete(src, id)
	s.coll(to)[id] = item
	s.touch()
	return true
}

// Transfer removes id from from (if present) and stores item in to, under one
// lock. This is the queue to history transition with a new payload.
func (s *Store) Transfer(from, to Collection, id string, item api.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.coll(from), id)
	s.coll(to)[id] = item.Clone()
	s.touch()
}

// Get returns the item stored under id, or def when absent.
func (s *Store) Get(c Collection, id string, def api.Item) api.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var m map[string]api.Item
	switch c {
	case Queue:
		m = s.queue
	case History:
		m = s.history
	}
	if item, ok := m[id]; ok {
		return item.Clone()
	}
	return def
}

// Has reports whether id is stored in c.
func (s *Store) Has(c Collection, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch c {
	case Queue:
		_, ok := s.queue[id]
		return ok
	case History:
		_, ok := s.history[id]
		return ok
	}
	return false
}

// Count returns the number of keys in c.
func (s *Store) Count(c Collection) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch c {
	case Queue:
		return len(s.queue)
	case History:
		return len(s.history)
	}
	return 0
}

// ClearAll empties c.
func (s *Store) ClearAll(c Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.coll(c))
	s.touch()
}

// AddAll upserts every entry of items into c.
func (s *Store) AddAll(c Collection, items map[string]api.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.coll(c)
	for id, item := range items {
		m[id] = item.Clone()
	}
	s.touch()
}

// ReplaceAll swaps both collections for a full snapshot under one lock and
// marks the store as synced.
func (s *Store) ReplaceAll(queue, history map[string]api.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = cloneItems(queue)
	s.history = cloneItems(history)
	s.synced = true
	s.lastError = nil
	s.touch()
}

// SetConnected records transport state. A disconnect also clears the synced
// flag so the next snapshot is awaited before trusting the collections.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
	if !connected {
		s.synced = false
	}
	s.touch()
}

// Connected reports the transport state.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// RecordError keeps the most recent stream error for display.
func (s *Store) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.touch()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Queue:       cloneItems(s.queue),
		History:     cloneItems(s.history),
		Connected:   s.connected,
		Synced:      s.synced,
		LastUpdated: s.lastUpdated,
	}
	if s.lastError != nil {
		snap.LastError = fmt.Errorf("%w", s.lastError)
	}
	return snap
}

func cloneItems(items map[string]api.Item) map[string]api.Item {
	dup := make(map[string]api.Item, len(items))
	for id, item := range items {
		dup[id] = item.Clone()
	}
	return dup
}
