package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is an entity identifier. The backend has used both string and numeric
// ids across versions, so both decode into the same string form.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Pagination mirrors the pagination block of list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ListResponse is the standard collection envelope.
type ListResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Item is a download job as carried by the queue and history collections.
type Item struct {
	ID        string         `json:"_id"`
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Status    string         `json:"status"`
	Percent   float64        `json:"percent"`
	Speed     float64        `json:"speed"`
	ETA       float64        `json:"eta"`
	Folder    string         `json:"folder,omitempty"`
	Preset    string         `json:"preset,omitempty"`
	Filename  string         `json:"filename,omitempty"`
	Error     string         `json:"error,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Timestamp float64        `json:"timestamp,omitempty"`
	Extras    map[string]any `json:"extras,omitempty"`
}

// Key returns the collection key for the item.
func (i Item) Key() string { return i.ID }

// AddedAt converts the backend's epoch timestamp (seconds or nanoseconds).
func (i Item) AddedAt() time.Time {
	if i.Timestamp <= 0 {
		return time.Time{}
	}
	if i.Timestamp > 1e12 {
		return time.Unix(0, int64(i.Timestamp))
	}
	return time.Unix(int64(i.Timestamp), 0)
}

// ETADuration returns the remaining time estimate.
func (i Item) ETADuration() time.Duration {
	if i.ETA <= 0 {
		return 0
	}
	return time.Duration(i.ETA * float64(time.Second))
}

// Clone returns a copy that shares no maps with i.
func (i Item) Clone() Item {
	if i.Extras != nil {
		extras := make(map[string]any, len(i.Extras))
		for k, v := range i.Extras {
			extras[k] = v
		}
		i.Extras = extras
	}
	return i
}

// AppSettings is the app block of the connected snapshot. Unknown keys are kept
// in Extra.
type AppSettings struct {
	DownloadPath string         `json:"download_path"`
	Version      string         `json:"app_version"`
	YTDLPVersion string         `json:"ytdlp_version"`
	BasicMode    bool           `json:"basic_mode"`
	Extra        map[string]any `json:"-"`
}

// UnmarshalJSON keeps the known fields typed and everything else in Extra.
func (a *AppSettings) UnmarshalJSON(data []byte) error {
	type plain AppSettings
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range []string{"download_path", "app_version", "ytdlp_version", "basic_mode"} {
		delete(all, k)
	}
	*a = AppSettings(known)
	if len(all) > 0 {
		a.Extra = all
	}
	return nil
}

// Preset is a named set of download options.
type Preset struct {
	ID          ID     `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Folder      string `json:"folder,omitempty"`
	Template    string `json:"template,omitempty"`
	Cookies     string `json:"cookies,omitempty"`
	CLI         string `json:"cli,omitempty"`
	Default     bool   `json:"default,omitempty"`
	Priority    int    `json:"priority,omitempty"`
}

// Key implements the resource entity contract.
func (p Preset) Key() string { return string(p.ID) }

// Task is a scheduled download task.
type Task struct {
	ID             ID     `json:"id,omitempty"`
	Name           string `json:"name"`
	URL            string `json:"url"`
	Folder         string `json:"folder,omitempty"`
	Preset         string `json:"preset,omitempty"`
	Timer          string `json:"timer,omitempty"`
	Template       string `json:"template,omitempty"`
	CLI            string `json:"cli,omitempty"`
	AutoStart      bool   `json:"auto_start"`
	HandlerEnabled bool   `json:"handler_enabled"`
	Enabled        bool   `json:"enabled"`
}

// Key implements the resource entity contract.
func (t Task) Key() string { return string(t.ID) }

// Condition applies extra options to downloads matching a filter.
type Condition struct {
	ID          ID             `json:"id,omitempty"`
	Name        string         `json:"name"`
	Filter      string         `json:"filter"`
	CLI         string         `json:"cli,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
	Enabled     bool           `json:"enabled"`
	Priority    int            `json:"priority"`
	Description string         `json:"description,omitempty"`
}

// Key implements the resource entity contract.
func (c Condition) Key() string { return string(c.ID) }

// NotificationRequest describes how a notification target is called.
type NotificationRequest struct {
	Type    string            `json:"type"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Data    string            `json:"data_key,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// NotificationTarget is a webhook the backend notifies on events.
type NotificationTarget struct {
	ID      ID                  `json:"id,omitempty"`
	Name    string              `json:"name"`
	On      []string            `json:"on"`
	Presets []string            `json:"presets,omitempty"`
	Enabled bool                `json:"enabled"`
	Request NotificationRequest `json:"request"`
}

// Key implements the resource entity contract.
func (n NotificationTarget) Key() string { return string(n.ID) }

// BrowserEntry is one row of a file browser listing.
type BrowserEntry struct {
	Type        string  `json:"type"`
	ContentType string  `json:"content_type,omitempty"`
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Size        int64   `json:"size"`
	MimeType    string  `json:"mimetype,omitempty"`
	IsDir       bool    `json:"is_dir"`
	IsFile      bool    `json:"is_file"`
	Modified    float64 `json:"mtime,omitempty"`
}

// ModifiedAt returns the modification time.
func (e BrowserEntry) ModifiedAt() time.Time {
	if e.Modified <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(e.Modified), 0)
}

// BrowserListing mirrors the file browser endpoint.
type BrowserListing struct {
	Path     string         `json:"path"`
	Contents []BrowserEntry `json:"contents"`
}

// FormatID renders numeric ids the same way UnmarshalJSON does.
func FormatID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}
