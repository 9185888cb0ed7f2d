package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Doer is the subset of *Client used by the resource layer.
// It exists so resources can be exercised against fakes.
type Doer interface {
	Do(ctx context.Context, method string, rel *url.URL, body, dest any) error
}

// Ensure Client implements Doer at compile time.
var _ Doer = (*Client)(nil)

// Client talks to the backend HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultServerURL = "http://127.0.0.1:8081"
	defaultUserAgent = "queuewatch/0.1"
	requestTimeout   = 10 * time.Second

	// maxErrorBody bounds how much of a failed response is read for the message.
	maxErrorBody = 64 << 10
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the given server URL or host:port.
func NewClient(serverURL string, opts ...Option) (*Client, error) {
	base, err := ParseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns a copy of the normalized server URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Get issues a GET request against path and decodes the response into dest.
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	return c.Do(ctx, http.MethodGet, &url.URL{Path: path}, nil, dest)
}

// Post sends body as JSON and decodes the response into dest.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.Do(ctx, http.MethodPost, &url.URL{Path: path}, body, dest)
}

// Put sends body as JSON and decodes the response into dest.
func (c *Client) Put(ctx context.Context, path string, body, dest any) error {
	return c.Do(ctx, http.MethodPut, &url.URL{Path: path}, body, dest)
}

// Patch sends body as JSON and decodes the response into dest.
func (c *Client) Patch(ctx context.Context, path string, body, dest any) error {
	return c.Do(ctx, http.MethodPatch, &url.URL{Path: path}, body, dest)
}

// Delete issues a DELETE request; dest may be nil.
func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	return c.Do(ctx, http.MethodDelete, &url.URL{Path: path}, nil, dest)
}

// Do performs a request relative to the base URL. A nil body sends no payload,
// a nil dest discards the response body.
func (c *Client) Do(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := *c.baseURL
	reqURL.Path = c.baseURL.Path + "/" + strings.TrimLeft(rel.Path, "/")
	reqURL.RawQuery = rel.RawQuery

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Method:  method,
			Path:    rel.Path,
			Status:  resp.StatusCode,
			Message: ParseAPIError(resp.StatusCode, raw),
		}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ParseBaseURL normalizes a server address into a scheme+host URL,
// keeping any path prefix so the client can sit behind a reverse proxy.
func ParseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server url %q: missing host", serverURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
