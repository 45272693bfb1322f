package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/calassist/internal/calendar"
	"github.com/rcliao/calassist/internal/config"
	"github.com/rcliao/calassist/internal/model"
	"github.com/rcliao/calassist/internal/store"
)

func TestWriteView(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 6, 2, 9, 0, 0, 0, loc)
	view := model.UpcomingView{
		SyncedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, loc),
		Events: []model.NormalizedEvent{
			{ID: "a", Title: "Standup", Start: start, End: start.Add(30 * time.Minute), Location: "Room 1"},
			{ID: "b", Title: "Holiday", Start: time.Date(2024, 6, 3, 0, 0, 0, 0, loc), End: time.Date(2024, 6, 4, 0, 0, 0, 0, loc), AllDay: true, Description: "Office closed"},
		},
	}

	var buf bytes.Buffer
	writeView(&buf, view, loc)
	out := buf.String()

	for _, want := range []string{
		"2024-06-02 • 09:00 - 09:30",
		"  Standup",
		"  @ Room 1",
		"2024-06-03 • All day",
		"  Office closed",
		"Last synced: 12:00:00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteView_Empty(t *testing.T) {
	var buf bytes.Buffer
	writeView(&buf, model.UpcomingView{}, time.UTC)
	if strings.TrimSpace(buf.String()) != "No upcoming events found" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestPersistNew(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.AppendTurn(ctx, store.AppendParams{Session: "default", Role: model.RoleUser, Content: "earlier"})
	prev, _ := s.Conversation(ctx, "default")
	next := prev.Append(
		model.Turn{Role: model.RoleUser, Content: "what's next?"},
		model.Turn{Role: model.RoleAssistant, Content: "Lunch at noon."},
	)

	if err := persistNew(ctx, s, "default", prev, next); err != nil {
		t.Fatal(err)
	}

	got, _ := s.History(ctx, store.HistoryParams{Session: "default"})
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	if got[2].Content != "Lunch at noon." || got[2].Role != model.RoleAssistant {
		t.Errorf("unexpected last turn: %+v", got[2])
	}
}

func TestNewScheduler(t *testing.T) {
	if _, err := newScheduler("*/15 * * * *", func() {}); err != nil {
		t.Errorf("expected valid schedule, got %v", err)
	}
	if _, err := newScheduler("every so often", func() {}); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Calendar.URL = "https://calendar.test/events"
	g, ok := newSource(cfg).(*calendar.GoogleSource)
	if !ok {
		t.Fatal("expected google source by default")
	}
	if g.URL != cfg.Calendar.URL {
		t.Errorf("expected URL override, got %q", g.URL)
	}

	cfg.Calendar.Source = config.SourceICS
	cfg.Calendar.URL = "https://example.com/cal.ics"
	if _, ok := newSource(cfg).(*calendar.ICSSource); !ok {
		t.Error("expected ics source")
	}
}

func TestConfigAndDBPaths(t *testing.T) {
	t.Setenv("CALASSIST_DB", "/tmp/x.db")
	t.Setenv("CALASSIST_CONFIG", "/tmp/x.yaml")
	dbPath, configPath = "", ""

	if got := getDBPath(); got != "/tmp/x.db" {
		t.Errorf("expected env db path, got %q", got)
	}
	if got := getConfigPath(); got != "/tmp/x.yaml" {
		t.Errorf("expected env config path, got %q", got)
	}

	dbPath = "/explicit.db"
	defer func() { dbPath = "" }()
	if got := getDBPath(); got != "/explicit.db" {
		t.Errorf("expected flag to win, got %q", got)
	}
}
