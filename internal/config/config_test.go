package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/openclerk/clerk/internal/appdir"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("Server.URL = %q, want %q", cfg.Server.URL, DefaultServerURL)
	}
	if cfg.Server.WSURL != DefaultWSURL {
		t.Errorf("Server.WSURL = %q, want %q", cfg.Server.WSURL, DefaultWSURL)
	}
	if cfg.Chat.HistoryLimit != DefaultHistoryLimit {
		t.Errorf("Chat.HistoryLimit = %d, want %d", cfg.Chat.HistoryLimit, DefaultHistoryLimit)
	}
	if !cfg.Chat.Stream {
		t.Error("Chat.Stream should default to true")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestParse_Overrides(t *testing.T) {
	data := []byte(`
server:
  url: https://shop.example.com/v1
  ws_url: wss://shop.example.com/ws
  timeout_seconds: 5
chat:
  history_limit: 25
  stream: false
  typing: false
log:
  level: debug
  file: /tmp/clerk.log
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.URL != "https://shop.example.com/v1" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.WSURL != "wss://shop.example.com/ws" {
		t.Errorf("Server.WSURL = %q", cfg.Server.WSURL)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Errorf("Server.Timeout = %v, want 5s", cfg.Server.Timeout)
	}
	if cfg.Chat.HistoryLimit != 25 {
		t.Errorf("Chat.HistoryLimit = %d, want 25", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.Stream {
		t.Error("Chat.Stream should be false")
	}
	if cfg.Chat.Typing {
		t.Error("Chat.Typing should be false")
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/clerk.log" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("server: [not a map")); err == nil {
		t.Error("expected parse error for invalid YAML")
	}
}

func TestLoadOrDefault_MissingExplicit(t *testing.T) {
	if _, _, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config path")
	}
}

func TestLoadOrDefault_FallsBackToDefaults(t *testing.T) {
	// Point every candidate location at an empty temp dir
	tmp := t.TempDir()
	t.Setenv("CLERKRC", filepath.Join(tmp, ".clerkrc"))
	t.Setenv("CLERK_DIR", tmp)

	cfg, source, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if source != "" {
		t.Errorf("source = %q, want empty (defaults)", source)
	}
	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("Server.URL = %q, want default", cfg.Server.URL)
	}
}

func TestDefaultConfigPath_NoHomeUsesDataDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("CLERKRC", "")
	t.Setenv("HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv("USERPROFILE", "")
	t.Setenv("CLERK_DIR", tmp)
	appdir.ResetCache()
	t.Cleanup(appdir.ResetCache)

	want := filepath.Join(tmp, appdir.SettingsFileName)
	if got := DefaultConfigPath(); got != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var mu sync.Mutex
	var got *Config
	reloaded := make(chan struct{}, 1)

	w, err := NewWatcher(path, func(cfg *Config) {
		mu.Lock()
		got = cfg
		mu.Unlock()
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.SetDebounceDelay(10 * time.Millisecond)
	w.Start()
	defer w.Close()

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	mu.Lock()
	defer mu.Unlock()
	if got == nil || got.Log.Level != "debug" {
		t.Errorf("reloaded config = %+v, want log level debug", got)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, func(*Config) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.SetDebounceDelay(10 * time.Millisecond)
	w.Start()
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("write other file: %v", err)
	}

	select {
	case <-fired:
		t.Error("watcher fired for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
