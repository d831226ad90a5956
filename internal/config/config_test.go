package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sadopc/dailystretch/internal/model"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session != model.DefaultSessionConfig() {
		t.Fatalf("unexpected session config %+v", cfg.Session)
	}
	if cfg.UserKey != "anon" || !cfg.Notifications {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "study_minutes: 50\nbreak_minutes: 0\nuser_key: alice\nnotifications: false\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.StudyMinutes != 50 {
		t.Fatalf("expected study 50, got %d", cfg.Session.StudyMinutes)
	}
	// Non-positive values keep the default
	if cfg.Session.BreakMinutes != 5 {
		t.Fatalf("expected break 5, got %d", cfg.Session.BreakMinutes)
	}
	if cfg.Session.ReminderIntervalMinutes != 30 {
		t.Fatalf("expected reminder 30, got %d", cfg.Session.ReminderIntervalMinutes)
	}
	if cfg.UserKey != "alice" {
		t.Fatalf("expected alice, got %q", cfg.UserKey)
	}
	if cfg.Notifications {
		t.Fatal("notifications should be disabled")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("study_minutes: [oops"), 0o644)
	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.Session.StudyMinutes != 25 {
		t.Fatal("defaults should be returned alongside the error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Session.StudyMinutes = 45
	cfg.Session.BreakMinutes = 15
	cfg.Session.ReminderIntervalMinutes = 60
	cfg.UserKey = "42"
	cfg.Notifications = false
	cfg.RedisAddr = "localhost:6379"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DAILYSTRETCH_USER_KEY", "bob")
	t.Setenv("DAILYSTRETCH_REDIS_ADDR", "redis:6379")
	t.Setenv("DAILYSTRETCH_DB", "")

	cfg := Default()
	cfg.DBPath = "/tmp/x.db"
	ApplyEnv(&cfg)
	if cfg.UserKey != "bob" || cfg.RedisAddr != "redis:6379" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Fatal("empty env var should not override")
	}
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Fatalf("unexpected path %q", path)
	}
}
