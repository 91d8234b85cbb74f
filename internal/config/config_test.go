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
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Refresh != defaultRefresh || cfg.HorizonDays != defaultHorizonDays {
		t.Errorf("cfg = %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database: /tmp/dayfill.db
reconcile_min_interval: 30s
calendars:
  - name: Work
    path: /tmp/work.ics
  - id: home
    path: ~/home.ics
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ReconcileMinInterval != 30*time.Second {
		t.Errorf("ReconcileMinInterval = %v", cfg.ReconcileMinInterval)
	}
	if cfg.Calendars[0].ID != "cal1" || cfg.Calendars[1].ID != "home" {
		t.Errorf("calendars = %+v", cfg.Calendars)
	}
	if cfg.Refresh != defaultRefresh {
		t.Errorf("Refresh = %q", cfg.Refresh)
	}

	sources, err := cfg.Sources()
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	if sources[0].Path != "/tmp/work.ics" || filepath.Base(sources[1].Path) != "home.ics" || sources[1].Path[0] == '~' {
		t.Errorf("sources = %+v", sources)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "calendars: [\n"},
		{"bad cron", "refresh: every minute\n"},
		{"missing path", "calendars:\n  - id: a\n"},
		{"duplicate id", "calendars:\n  - id: a\n    path: x.ics\n  - id: a\n    path: y.ics\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Calendars = append(cfg.Calendars, CalendarConfig{ID: "work", Name: "Work", Path: "/tmp/work.ics"})
	cfg.ReconcileMinInterval = 2 * time.Minute
	cfg.Debug = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Calendars) != 1 || got.Calendars[0] != cfg.Calendars[0] {
		t.Errorf("calendars = %+v", got.Calendars)
	}
	if got.ReconcileMinInterval != 2*time.Minute || !got.Debug {
		t.Errorf("got = %+v", got)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected an error for an empty path")
	}
}
