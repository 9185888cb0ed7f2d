package ui

import (
	"testing"
	"time"

	"github.com/queuewatch/queuewatch/internal/api"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"negative", -5 * time.Second, "just now"},
		{"seconds", 12 * time.Second, "just now"},
		{"minutes", 61 * time.Second, "1m ago"},
		{"hours", 2*time.Hour + 10*time.Minute, "2h ago"},
		{"days", 49 * time.Hour, "2d ago"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := humanizeDuration(tc.in); got != tc.want {
				t.Fatalf("humanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  hello  ", 10); got != "hello" {
		t.Fatalf("truncate trims = %q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q, want abc...", got)
	}
	if got := truncate("abcd", 2); got != "ab" {
		t.Fatalf("truncate short limit = %q, want ab", got)
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	got := truncateMiddle("http://example.com/very/long/path", 11)
	if len([]rune(got)) != 11 {
		t.Fatalf("got %q (%d runes), want 11", got, len([]rune(got)))
	}
	if got[:5] != "http:" {
		t.Fatalf("prefix lost: %q", got)
	}
}

func TestFormatBytesAndSpeed(t *testing.T) {
	cases := map[int64]string{
		999:             "999 B",
		1024:            "1.00 KiB",
		1024 * 1024:     "1.00 MiB",
		3 * 1024 * 1024: "3.00 MiB",
		1 << 30:         "1.00 GiB",
	}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
	if got := formatSpeed(0); got != "--" {
		t.Fatalf("formatSpeed(0) = %q", got)
	}
	if got := formatSpeed(2048); got != "2.00 KiB/s" {
		t.Fatalf("formatSpeed(2048) = %q", got)
	}
}

func TestFormatPercentAndETA(t *testing.T) {
	if got := formatPercent(0); got != "--" {
		t.Fatalf("formatPercent(0) = %q", got)
	}
	if got := formatPercent(42.345); got != "42.3%" {
		t.Fatalf("formatPercent(42.345) = %q", got)
	}
	if got := formatPercent(180); got != "100.0%" {
		t.Fatalf("formatPercent(180) = %q", got)
	}

	etas := []struct {
		in   time.Duration
		want string
	}{
		{0, "--"},
		{9 * time.Second, "9s"},
		{3*time.Minute + 4*time.Second, "3m 04s"},
		{time.Hour + 2*time.Minute + 30*time.Second, "1h 02m"},
	}
	for _, tc := range etas {
		if got := formatETA(tc.in); got != tc.want {
			t.Fatalf("formatETA(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSortItems(t *testing.T) {
	items := map[string]api.Item{
		"b": {ID: "b", Timestamp: 200},
		"a": {ID: "a", Timestamp: 100},
		"c": {ID: "c", Timestamp: 200},
	}
	oldest := sortItems(items, false)
	if oldest[0].ID != "a" || oldest[1].ID != "b" || oldest[2].ID != "c" {
		t.Fatalf("oldest first = %v", ids(oldest))
	}
	newest := sortItems(items, true)
	if newest[0].ID != "b" || newest[1].ID != "c" || newest[2].ID != "a" {
		t.Fatalf("newest first = %v", ids(newest))
	}
}

func TestVisibleStart(t *testing.T) {
	cases := []struct{ sel, total, height, want int }{
		{0, 5, 10, 0},
		{3, 20, 5, 0},
		{7, 20, 5, 3},
		{19, 20, 5, 15},
	}
	for _, tc := range cases {
		if got := visibleStart(tc.sel, tc.total, tc.height); got != tc.want {
			t.Fatalf("visibleStart(%d, %d, %d) = %d, want %d", tc.sel, tc.total, tc.height, got, tc.want)
		}
	}
}

func ids(items []api.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
