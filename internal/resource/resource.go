package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/catalog"
	"github.com/queuewatch/queuewatch/internal/notify"
)

// Notifier receives error notices for failed calls.
type Notifier interface {
	Add(level notify.Level, message string) notify.Notification
}

// Options configure a resource.
type Options struct {
	// ThrowInstead returns errors to the caller instead of swallowing them
	// behind a nil/false result. Failures are recorded and notified either way.
	ThrowInstead bool
	Notifier     Notifier
	Logger       *slog.Logger
}

// Resource is the REST CRUD client for one entity type. Its local list is a
// catalog.List that may be shared with the realtime stream.
type Resource[T catalog.Entity] struct {
	name   string
	path   string
	client api.Doer
	list   *catalog.List[T]
	opts   Options
	log    *slog.Logger

	mu        sync.Mutex
	lastError string
	inflight  int
}

// New builds a resource for the collection endpoint path.
func New[T catalog.Entity](name, path string, client api.Doer, list *catalog.List[T], opts Options) *Resource[T] {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Resource[T]{
		name:   name,
		path:   strings.TrimRight(path, "/"),
		client: client,
		list:   list,
		opts:   opts,
		log:    log,
	}
}

// Items returns the local list in sorted order.
func (r *Resource[T]) Items() []T { return r.list.Items() }

// List exposes the underlying catalog list.
func (r *Resource[T]) List() *catalog.List[T] { return r.list }

// Pagination returns the pagination of the last load, adjusted by creates and
// deletes since.
func (r *Resource[T]) Pagination() api.Pagination { return r.list.Pagination() }

// LastError returns the message of the most recent failure, or "".
func (r *Resource[T]) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}

// Loading reports whether a request is in flight.
func (r *Resource[T]) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight > 0
}

func (r *Resource[T]) begin() func() {
	r.mu.Lock()
	r.inflight++
	r.lastError = ""
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.inflight--
		r.mu.Unlock()
	}
}

func (r *Resource[T]) itemPath(id string) *url.URL {
	return &url.URL{Path: r.path + "/" + id}
}

// Load fetches one page and replaces the local list with it.
func (r *Resource[T]) Load(ctx context.Context, page, perPage int) (bool, error) {
	defer r.begin()()

	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		values.Set("per_page", strconv.Itoa(perPage))
	}
	rel := &url.URL{Path: r.path, RawQuery: values.Encode()}

	var payload api.ListResponse[T]
	if err := r.client.Do(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return false, r.fail("load "+r.name+"s", err)
	}
	if payload.Items == nil {
		payload.Items = []T{}
	}
	r.list.Replace(payload.Items, payload.Pagination)
	return true, nil
}

// Get fetches one entity and refreshes it in the local list.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	defer r.begin()()

	var item T
	if err := r.client.Do(ctx, http.MethodGet, r.itemPath(id), nil, &item); err != nil {
		return nil, r.fail("get "+r.name, err)
	}
	if _, ok := r.list.Get(item.Key()); ok {
		r.list.Upsert(item)
	}
	return &item, nil
}

// Create posts a new entity and inserts the server's copy locally.
func (r *Resource[T]) Create(ctx context.Context, item T) (*T, error) {
	defer r.begin()()

	var created T
	if err := r.client.Do(ctx, http.MethodPost, &url.URL{Path: r.path}, item, &created); err != nil {
		return nil, r.fail("create "+r.name, err)
	}
	r.list.Insert(created)
	return &created, nil
}

// Update replaces an entity in full.
func (r *Resource[T]) Update(ctx context.Context, id string, item T) (*T, error) {
	defer r.begin()()

	var updated T
	if err := r.client.Do(ctx, http.MethodPut, r.itemPath(id), item, &updated); err != nil {
		return nil, r.fail("update "+r.name, err)
	}
	r.list.Upsert(updated)
	return &updated, nil
}

// Patch applies a partial update.
func (r *Resource[T]) Patch(ctx context.Context, id string, patch map[string]any) (*T, error) {
	defer r.begin()()

	var updated T
	if err := r.client.Do(ctx, http.MethodPatch, r.itemPath(id), patch, &updated); err != nil {
		return nil, r.fail("patch "+r.name, err)
	}
	r.list.Upsert(updated)
	return &updated, nil
}

// Delete removes an entity on the server and locally.
func (r *Resource[T]) Delete(ctx context.Context, id string) (bool, error) {
	defer r.begin()()

	if err := r.client.Do(ctx, http.MethodDelete, r.itemPath(id), nil, nil); err != nil {
		return false, r.fail("delete "+r.name, err)
	}
	r.list.Remove(id)
	return true, nil
}

func (r *Resource[T]) fail(action string, err error) error {
	msg := describe(err)
	r.mu.Lock()
	r.lastError = msg
	r.mu.Unlock()

	r.log.Warn("request failed", "resource", r.name, "action", action, "error", err)
	if r.opts.Notifier != nil {
		r.opts.Notifier.Add(notify.LevelError, fmt.Sprintf("Failed to %s: %s", action, msg))
	}
	if r.opts.ThrowInstead {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

// describe turns an error into the message shown to the user: the parsed API
// message for non-2xx responses, the raw error otherwise.
func describe(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("HTTP %d", apiErr.Status)
	}
	return err.Error()
}
