package config

import (
	"errors"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host, DefaultHost)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.BufferSize != DefaultBufferSize {
		t.Errorf("BufferSize = %d, want %d", cfg.BufferSize, DefaultBufferSize)
	}
	if cfg.Encoding != DefaultEncoding {
		t.Errorf("Encoding = %q, want %q", cfg.Encoding, DefaultEncoding)
	}
	if cfg.Backlog != DefaultBacklog {
		t.Errorf("Backlog = %d, want %d", cfg.Backlog, DefaultBacklog)
	}
	if len(cfg.Modules) != 2 || cfg.Modules[0] != "auth" || cfg.Modules[1] != "chat" {
		t.Errorf("Modules = %v, want [auth chat]", cfg.Modules)
	}
	if cfg.DBPath != "db.sqlite" {
		t.Errorf("DBPath = %q, want db.sqlite", cfg.DBPath)
	}
	if cfg.Addr() != "localhost:7777" {
		t.Errorf("Addr = %q, want localhost:7777", cfg.Addr())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MESSENGER_HOST", "0.0.0.0")
	t.Setenv("MESSENGER_PORT", "9000")
	t.Setenv("MESSENGER_BUFFER_SIZE", "1024")
	t.Setenv("MESSENGER_MODULES", "auth")
	t.Setenv("LOG_LEVEL", "warning")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.BufferSize != 1024 {
		t.Errorf("BufferSize = %d", cfg.BufferSize)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0] != "auth" {
		t.Errorf("Modules = %v", cfg.Modules)
	}
	// "warning" normalizes to "warn"
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("MESSENGER_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad LOG_LEVEL")
	}
}

func TestFreezeGuard(t *testing.T) {
	cfg := MustLoad()

	if err := cfg.SetEndpoint("127.0.0.1", 8001); err != nil {
		t.Fatalf("SetEndpoint while thawed: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:8001" {
		t.Errorf("Addr = %q", cfg.Addr())
	}

	cfg.Freeze()
	if !cfg.Frozen() {
		t.Fatal("Frozen() = false after Freeze")
	}
	if err := cfg.SetEndpoint("10.0.0.1", 8002); !errors.Is(err, ErrFrozen) {
		t.Fatalf("SetEndpoint while frozen: err=%v, want ErrFrozen", err)
	}
	if err := cfg.SetBufferSize(2048); !errors.Is(err, ErrFrozen) {
		t.Fatalf("SetBufferSize while frozen: err=%v, want ErrFrozen", err)
	}
	if cfg.Addr() != "127.0.0.1:8001" {
		t.Errorf("frozen config mutated: %q", cfg.Addr())
	}

	cfg.Thaw()
	if err := cfg.SetBufferSize(2048); err != nil {
		t.Fatalf("SetBufferSize after Thaw: %v", err)
	}
	if cfg.BufferSize != 2048 {
		t.Errorf("BufferSize = %d, want 2048", cfg.BufferSize)
	}
}

func TestSetEndpoint_PartialOverride(t *testing.T) {
	cfg := MustLoad()
	// empty host and negative port keep current values
	if err := cfg.SetEndpoint("", -1); err != nil {
		t.Fatalf("SetEndpoint: %v", err)
	}
	if cfg.Addr() != "localhost:7777" {
		t.Errorf("Addr = %q, want localhost:7777", cfg.Addr())
	}
	if err := cfg.SetEndpoint("", 70000); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
