package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	// The default file was written so operators have something to edit.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("addr: \":9999\"\nlog_level: debug\nhistory_limit: 25\nnats_url: nats://localhost:4222\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.LogLevel != "debug" || cfg.HistoryLimit != 25 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("nats url not applied: %q", cfg.NATSURL)
	}

	// Values the file omits keep their defaults.
	if cfg.ShutdownTimeout != 5*time.Second || cfg.DatabasePath != Default().DatabasePath {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: \":9999\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CHAT_ADDR", ":7777")
	t.Setenv("CHAT_DATABASE_PATH", "/tmp/override.db")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Fatalf("env did not override file: %q", cfg.Addr)
	}
	if cfg.DatabasePath != "/tmp/override.db" {
		t.Fatalf("env did not override default: %q", cfg.DatabasePath)
	}
}
