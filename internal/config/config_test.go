package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultWorkspace = "work"
	cfg.Feed.PageLength = 10
	cfg.Feed.WatchInterval = Duration{90 * time.Second}
	cfg.Metrics.ListenAddr = "127.0.0.1:9464"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultWorkspace != "work" {
		t.Errorf("DefaultWorkspace = %q, want %q", loaded.DefaultWorkspace, "work")
	}
	if loaded.Feed.PageLength != 10 || loaded.Feed.WatchInterval.Duration != 90*time.Second {
		t.Errorf("Feed = %+v", loaded.Feed)
	}
	if loaded.Metrics.ListenAddr != "127.0.0.1:9464" {
		t.Errorf("Metrics = %+v", loaded.Metrics)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "default_workspace = \"front\"\n[feed]\nwatch_interval = \"15s\"\npage_length = 0\n[ingest]\namqp_url = \"amqp://localhost\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.WatchInterval.Duration != 15*time.Second {
		t.Errorf("WatchInterval = %v", cfg.Feed.WatchInterval)
	}
	if cfg.Feed.PageLength != 6 {
		t.Errorf("PageLength = %d, want default 6", cfg.Feed.PageLength)
	}
	if cfg.Ingest.Queue != "guestfeed.inbound" || cfg.Ingest.AMQPURL != "amqp://localhost" {
		t.Errorf("Ingest = %+v", cfg.Ingest)
	}
	if cfg.Feed.MinStoreVersion != 1 {
		t.Errorf("MinStoreVersion = %d", cfg.Feed.MinStoreVersion)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[feed]\nwatch_interval = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid duration")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}

	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.DefaultWorkspace != "main" || cfg.Feed.PageLength != 6 {
		t.Errorf("LoadOrDefault() = %+v", cfg)
	}
}

func TestLocation(t *testing.T) {
	loc, err := FeedConfig{Timezone: "UTC"}.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location(UTC) = %v, %v", loc, err)
	}
	loc, err = FeedConfig{}.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Location(\"\") = %v, %v", loc, err)
	}
	if _, err := (FeedConfig{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Error("Location() expected error for unknown zone")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
