package resource

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/notify"
)

// Browser lists the download directory through the file browser endpoint.
type Browser struct {
	client api.Doer
	opts   Options
	log    *slog.Logger

	mu        sync.Mutex
	lastError string
	current   *api.BrowserListing
}

// NewBrowser builds a file browser client.
func NewBrowser(client api.Doer, opts Options) *Browser {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Browser{client: client, opts: opts, log: log}
}

// List fetches the contents of dir, relative to the download root. Directories
// sort before files, then by name.
func (b *Browser) List(ctx context.Context, dir string) (*api.BrowserListing, error) {
	b.mu.Lock()
	b.lastError = ""
	b.mu.Unlock()

	var listing api.BrowserListing
	if err := b.client.Do(ctx, http.MethodGet, browserPath(dir), nil, &listing); err != nil {
		msg := describe(err)
		b.mu.Lock()
		b.lastError = msg
		b.mu.Unlock()
		b.log.Warn("browse failed", "path", dir, "error", err)
		if b.opts.Notifier != nil {
			b.opts.Notifier.Add(notify.LevelError, fmt.Sprintf("Failed to browse %q: %s", dir, msg))
		}
		if b.opts.ThrowInstead {
			return nil, fmt.Errorf("browse %q: %w", dir, err)
		}
		return nil, nil
	}

	slices.SortStableFunc(listing.Contents, func(a, c api.BrowserEntry) int {
		if a.IsDir != c.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(c.Name))
	})

	b.mu.Lock()
	b.current = &listing
	b.mu.Unlock()
	return &listing, nil
}

// Current returns the last successful listing, or nil.
func (b *Browser) Current() *api.BrowserListing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// LastError returns the message of the most recent failure, or "".
func (b *Browser) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastError
}

func browserPath(dir string) *url.URL {
	var segments []string
	for _, part := range strings.Split(dir, "/") {
		if part == "" || part == "." {
			continue
		}
		segments = append(segments, part)
	}
	p := "/api/file/browser/" + strings.Join(segments, "/")
	return &url.URL{Path: p}
}
