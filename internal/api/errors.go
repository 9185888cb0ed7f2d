package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned for non-2xx API responses.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an API error
// (for example a transport failure).
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 API error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// ParseAPIError extracts a human readable message from a failed response body.
// It understands {"error": ...}, {"message": ...} and {"detail": ...} shapes,
// where detail may be a string or a list of validation errors, and falls back
// to the HTTP status line.
func ParseAPIError(status int, body []byte) string {
	fallback := statusLine(status)
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fallback
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return fallback
	}
	for _, key := range []string{"error", "message", "detail"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		if msg := messageFrom(raw); msg != "" {
			return msg
		}
	}
	return fallback
}

func messageFrom(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var details []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &details); err == nil {
		parts := make([]string, 0, len(details))
		for _, d := range details {
			if d.Msg == "" {
				continue
			}
			if len(d.Loc) > 0 {
				parts = append(parts, fmt.Sprintf("%v: %s", d.Loc[len(d.Loc)-1], d.Msg))
				continue
			}
			parts = append(parts, d.Msg)
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func statusLine(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	return fmt.Sprintf("HTTP %d %s", status, text)
}
