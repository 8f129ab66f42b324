package main

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Feed.Format != "gtfsrt" {
		t.Errorf("default feed format = %q, want gtfsrt", cfg.Feed.Format)
	}
	if cfg.Feed.PollInterval != time.Second {
		t.Errorf("default poll interval = %v, want 1s", cfg.Feed.PollInterval)
	}
	if cfg.Feed.RetryAttempts != 3 {
		t.Errorf("default retry attempts = %d, want 3", cfg.Feed.RetryAttempts)
	}
	if cfg.Feed.RetryBackoff != 2*time.Second {
		t.Errorf("default retry backoff = %v, want 2s", cfg.Feed.RetryBackoff)
	}
	if !cfg.Feed.OverlapGuard {
		t.Error("overlap guard should default to on")
	}
	if cfg.Stops.ZoomThreshold != 14 {
		t.Errorf("default zoom threshold = %d, want 14", cfg.Stops.ZoomThreshold)
	}
	if cfg.Feed.APIKey != "" {
		t.Error("default api key must be empty, never a live secret")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BUSTRACKER_SERVER_PORT", "3000")
	t.Setenv("BUSTRACKER_FEED_URL", "https://example.org/VehiclePositions.pb")
	t.Setenv("BUSTRACKER_FEED_RETRY_ATTEMPTS", "5")
	t.Setenv("BUSTRACKER_DATABASE_PASSWORD", "s3cret")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want env override 3000", cfg.Server.Port)
	}
	if cfg.Feed.URL != "https://example.org/VehiclePositions.pb" {
		t.Errorf("feed url = %q, want env override", cfg.Feed.URL)
	}
	if cfg.Feed.RetryAttempts != 5 {
		t.Errorf("retry attempts = %d, want 5", cfg.Feed.RetryAttempts)
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("db password not taken from env")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Run("bad format", func(t *testing.T) {
		t.Setenv("BUSTRACKER_FEED_FORMAT", "carrier-pigeon")
		if _, err := loadConfig(); err == nil {
			t.Error("expected error for unknown feed format")
		}
	})
	t.Run("zero retry attempts", func(t *testing.T) {
		t.Setenv("BUSTRACKER_FEED_RETRY_ATTEMPTS", "0")
		if _, err := loadConfig(); err == nil {
			t.Error("expected error for zero retry attempts")
		}
	})
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "bustracker", SSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=bustracker sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
