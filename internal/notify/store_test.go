package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestStore_AddNewestFirstWithHexIDs(t *testing.T) {
	s := New(WithClock(fixedClock()))
	first := s.Info("first")
	second := s.Error("second")

	list := s.List()
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("List = %#v, want newest first", list)
	}
	if list[0].Level != LevelError || list[1].Level != LevelInfo {
		t.Fatalf("levels = %v/%v, want error/info", list[0].Level, list[1].Level)
	}
	hexID := regexp.MustCompile(`^[0-9a-f]{32}$`)
	if !hexID.MatchString(first.ID) {
		t.Fatalf("ID = %q, want 32 hex chars", first.ID)
	}
	if first.ID == second.ID {
		t.Fatalf("IDs should differ")
	}
}

func TestStore_EvictsOldestBeyondLimit(t *testing.T) {
	s := New()
	for i := 0; i < DefaultLimit+5; i++ {
		s.Info(fmt.Sprintf("msg %d", i))
	}
	list := s.List()
	if len(list) != DefaultLimit {
		t.Fatalf("Len = %d, want %d", len(list), DefaultLimit)
	}
	if list[0].Message != fmt.Sprintf("msg %d", DefaultLimit+4) {
		t.Fatalf("newest = %q", list[0].Message)
	}
	if list[len(list)-1].Message != "msg 5" {
		t.Fatalf("oldest kept = %q, want msg 5", list[len(list)-1].Message)
	}
}

func TestStore_SeenAndRemove(t *testing.T) {
	s := New(WithLimit(10))
	a := s.Warning("a")
	b := s.Success("b")
	s.Info("c")

	if s.Unseen() != 3 {
		t.Fatalf("Unseen = %d, want 3", s.Unseen())
	}
	if !s.MarkSeen(a.ID) || s.MarkSeen("missing") {
		t.Fatalf("MarkSeen results unexpected")
	}
	if s.Unseen() != 2 {
		t.Fatalf("Unseen = %d, want 2", s.Unseen())
	}
	if !s.Remove(b.ID) || s.Remove(b.ID) {
		t.Fatalf("Remove results unexpected")
	}
	s.MarkAllSeen()
	if s.Unseen() != 0 || s.Len() != 2 {
		t.Fatalf("Unseen=%d Len=%d, want 0/2", s.Unseen(), s.Len())
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", s.Len())
	}
}

func TestStore_SubscribeReceivesAdds(t *testing.T) {
	s := New()
	var got []string
	s.Subscribe(func(n Notification) { got = append(got, n.Level.String()+":"+n.Message) })
	s.Success("done")
	s.Warning("careful")
	if len(got) != 2 || got[0] != "success:done" || got[1] != "warning:careful" {
		t.Fatalf("subscriber got %v", got)
	}
}

func TestOpen_PersistsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notifications.toml")

	s := Open(path, WithClock(fixedClock()))
	a := s.Info("older")
	b := s.Error("newer")
	s.MarkSeen(a.ID)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("log written before flush: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	reopened := Open(path)
	list := reopened.List()
	if len(list) != 2 {
		t.Fatalf("reopened Len = %d, want 2", len(list))
	}
	if list[0].ID != b.ID || list[0].Level != LevelError || list[0].Message != "newer" {
		t.Fatalf("reopened[0] = %#v, want newer error", list[0])
	}
	if !list[1].Seen || list[1].Created.Unix() != a.Created.Unix() {
		t.Fatalf("reopened[1] = %#v, want seen with original timestamp", list[1])
	}
}

func TestOpen_InvalidFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s := Open(path)
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
	s.Info("recovered")
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if Open(path).Len() != 1 {
		t.Fatalf("log should be rewritten after recovery")
	}
}

func TestRun_BatchesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.toml")
	s := Open(path)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 20*time.Millisecond) }()

	for i := 0; i < 50; i++ {
		s.Info(fmt.Sprintf("burst %d", i))
	}
	deadline := time.Now().Add(3 * time.Second)
	for Open(path).Len() != 50 {
		if time.Now().After(deadline) {
			t.Fatalf("burst not flushed by Run")
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Warning("last words")
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if got := Open(path).List()[0].Message; got != "last words" {
		t.Fatalf("newest persisted = %q, want final flush on cancel", got)
	}
}

func TestFlush_NoChangesNoWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.toml")
	s := Open(path)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("clean store wrote a file: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"info", LevelInfo, false},
		{" SUCCESS ", LevelSuccess, false},
		{"warn", LevelWarning, false},
		{"warning", LevelWarning, false},
		{"error", LevelError, false},
		{"fatal", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.err)
		}
	}
	if Level(9).String() != "level(9)" {
		t.Fatalf("out of range String = %q", Level(9).String())
	}
}
