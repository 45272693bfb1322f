package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "deepseek-ai/deepseek-r1" {
		t.Errorf("expected default model, got %q", cfg.Model)
	}
	if cfg.MaxTokens != 2000 || cfg.Temperature != 0.7 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("model: openai/gpt-4o-mini\ntemperature: 3.5\ncalendar:\n  source: carrier-pigeon\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "openai/gpt-4o-mini" {
		t.Errorf("expected model from file, got %q", cfg.Model)
	}
	if cfg.Temperature != 2 {
		t.Errorf("expected temperature clamped to 2, got %v", cfg.Temperature)
	}
	if cfg.Calendar.Source != SourceGoogle {
		t.Errorf("expected unknown source to fall back to google, got %q", cfg.Calendar.Source)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
}

func TestLoad_AbsentKeysKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: x\ntimeout: 45s\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("expected default temperature 0.7, got %v", cfg.Temperature)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("expected timeout from file, got %v", cfg.Timeout)
	}
	if cfg.Refresh != "*/15 * * * *" || cfg.Session != "default" {
		t.Errorf("expected default refresh and session, got %q %q", cfg.Refresh, cfg.Session)
	}
}

func TestLoad_ExplicitZeroTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("temperature: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Temperature != 0 {
		t.Errorf("expected explicit 0 to be kept, got %v", cfg.Temperature)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Calendar = CalendarConfig{Source: SourceICS, URL: "https://example.com/cal.ics"}
	cfg.Timezone = "Asia/Seoul"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Calendar.Source != SourceICS || got.Calendar.URL != "https://example.com/cal.ics" {
		t.Errorf("calendar not preserved: %+v", got.Calendar)
	}
	loc, err := got.Location()
	if err != nil || loc.String() != "Asia/Seoul" {
		t.Errorf("expected Asia/Seoul, got %v (%v)", loc, err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-env")
	t.Setenv("GOOGLE_ACCESS_TOKEN", "ya29.env")

	cfg := DefaultConfig()
	cfg.APIKey = "sk-file"
	cfg.ApplyEnv()

	if cfg.APIKey != "sk-env" {
		t.Errorf("expected env key to win, got %q", cfg.APIKey)
	}
	if cfg.Calendar.AccessToken != "ya29.env" {
		t.Errorf("expected env token, got %q", cfg.Calendar.AccessToken)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}
}
