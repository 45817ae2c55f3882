package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/trades")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Port)
	}
	if cfg.Timezone != "Europe/Copenhagen" {
		t.Errorf("default timezone = %s", cfg.Timezone)
	}
	if cfg.ChannelBuffer != 100 {
		t.Errorf("default channel buffer = %d, want 100", cfg.ChannelBuffer)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("default cache TTL = %s, want 5m", cfg.CacheTTL)
	}
}

func TestWindow(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/trades")
	t.Setenv("REPORT_FROM", "2024-01-01")
	t.Setenv("REPORT_TO", "2024-11-01")
	t.Setenv("REPORT_TZ", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	from, to, err := cfg.Window()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %s", from)
	}
	if !to.Equal(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %s", to)
	}
}

func TestWindow_BadInput(t *testing.T) {
	cfg := &Config{ReportFrom: "01/01/2024", ReportTo: "2024-11-01", Timezone: "UTC"}
	if _, _, err := cfg.Window(); err == nil {
		t.Error("expected error for malformed REPORT_FROM")
	}

	cfg = &Config{ReportFrom: "2024-01-01", ReportTo: "2024-11-01", Timezone: "Mars/Olympus"}
	if _, _, err := cfg.Window(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
