package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.OpTimeout != 10*time.Second {
		t.Errorf("OpTimeout = %v, want 10s", cfg.OpTimeout)
	}
	if cfg.ImageCacheTTL != 7*24*time.Hour {
		t.Errorf("ImageCacheTTL = %v, want 168h", cfg.ImageCacheTTL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROOMS_ENABLED", "false")
	t.Setenv("DB_PATH", "/tmp/rooms.db")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ROOM_IDLE_TTL", "30m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RoomsEnabled {
		t.Error("RoomsEnabled = true, want false")
	}
	if cfg.DBPath != "/tmp/rooms.db" {
		t.Errorf("DBPath = %q, want /tmp/rooms.db", cfg.DBPath)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.RoomIdleTTL != 30*time.Minute {
		t.Errorf("RoomIdleTTL = %v, want 30m", cfg.RoomIdleTTL)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v, want 2.5", cfg.RateLimitRPS)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("OP_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}
