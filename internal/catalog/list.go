// Package catalog holds sorted, keyed entity lists shared between the realtime
// stream and the REST resources.
package catalog

import (
	"slices"
	"sync"

	"github.com/queuewatch/queuewatch/internal/api"
)

// Entity is anything with a stable string key.
type Entity interface {
	Key() string
}

// Less orders two entities.
type Less[T any] func(a, b T) bool

// List is a mutex-guarded ordered collection of entities plus the pagination
// descriptor of the last page loaded. Every mutation re-sorts the list.
type List[T Entity] struct {
	mu         sync.RWMutex
	less       Less[T]
	items      []T
	pagination api.Pagination
	version    uint64
}

// NewList builds an empty list sorted by less.
func NewList[T Entity](less Less[T]) *List[T] {
	return &List[T]{less: less}
}

// Items returns a copy of the entities in sorted order.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Len returns the number of entities held locally.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Pagination returns the current pagination descriptor.
func (l *List[T]) Pagination() api.Pagination {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pagination
}

// Version increments on every mutation; views use it to skip re-rendering.
func (l *List[T]) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Get returns the entity with key, if present.
func (l *List[T]) Get(key string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(key); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Replace swaps the whole list and pagination, as after a page load.
func (l *List[T]) Replace(items []T, p api.Pagination) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = slices.Clone(items)
	l.pagination = p
	l.sortLocked()
}

// ReplaceItems swaps the entities and derives a single-page pagination, as
// when the realtime stream pushes a full list. A push is the complete set, so
// it overwrites whatever page a REST Load recorded; last writer wins.
func (l *List[T]) ReplaceItems(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = slices.Clone(items)
	n := len(l.items)
	l.pagination = api.Pagination{Page: 1, PerPage: n, Total: n, TotalPages: 1}
	if n == 0 {
		l.pagination.TotalPages = 0
	}
	l.sortLocked()
}

// Insert adds a newly created entity and bumps the total by one.
// Entities with the same key are not deduplicated; that is the server's call.
func (l *List[T]) Insert(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, item)
	l.pagination.Total++
	l.sortLocked()
}

// Upsert replaces the entity with the same key, or inserts it without
// touching the total when it is not on the current page.
func (l *List[T]) Upsert(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(item.Key()); i >= 0 {
		l.items[i] = item
	} else {
		l.items = append(l.items, item)
	}
	l.sortLocked()
}

// Remove deletes the entity with key and decrements the total, never below 0.
// It reports whether an entity was removed locally.
func (l *List[T]) Remove(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pagination.Total > 0 {
		l.pagination.Total--
	}
	i := l.indexOf(key)
	if i < 0 {
		l.version++
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.version++
	return true
}

func (l *List[T]) indexOf(key string) int {
	return slices.IndexFunc(l.items, func(item T) bool { return item.Key() == key })
}

func (l *List[T]) sortLocked() {
	if l.less != nil {
		slices.SortStableFunc(l.items, func(a, b T) int {
			switch {
			case l.less(a, b):
				return -1
			case l.less(b, a):
				return 1
			default:
				return 0
			}
		})
	}
	l.version++
}
