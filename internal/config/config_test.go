// # internal/config/config_test.go
package config

import (
	"os"
	"testing"
	"time"

	"opsboard/internal/payload"
)

func TestLoad(t *testing.T) {
	content := `
data_dir = "./metrics-data"

[sources]
operational = "ops.csv"
clients = "billing.csv"

[ingest]
exclude_rows = ["total*", "итого*"]
[ingest.aliases]
"Acme Inc." = "Acme"

[calendar]
"2025-12" = 22
"2026-01" = 17

[output]
html = "public/index.html"
payload = "public/payload.json"
tsv = "public/export.tsv"

[watch]
debounce = "1s"
max_rebuilds_per_minute = 6

[alerts]
beep = true
terminal = true

[history]
enabled = true
path = "state/history.db"
trend_window = 8

[observability]
metrics_addr = "127.0.0.1:9321"
`
	tmpfile, err := os.CreateTemp("", "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != "./metrics-data" {
		t.Errorf("Expected DataDir ./metrics-data, got %s", cfg.DataDir)
	}
	if cfg.Sources.Operational != "ops.csv" || cfg.Sources.Clients != "billing.csv" {
		t.Errorf("Unexpected sources: %+v", cfg.Sources)
	}
	if len(cfg.Ingest.ExcludeRows) != 2 {
		t.Errorf("Unexpected exclude rows: %v", cfg.Ingest.ExcludeRows)
	}
	if cfg.Ingest.Aliases["Acme Inc."] != "Acme" {
		t.Errorf("Unexpected aliases: %v", cfg.Ingest.Aliases)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRebuildsPerMinute != 6 {
		t.Errorf("Expected 6 rebuilds per minute, got %d", cfg.Watch.MaxRebuildsPerMinute)
	}
	if cfg.Output.HTML != "public/index.html" {
		t.Errorf("Expected HTML public/index.html, got %s", cfg.Output.HTML)
	}
	if cfg.History.TrendWindow != 8 {
		t.Errorf("Expected trend window 8, got %d", cfg.History.TrendWindow)
	}
	if cfg.Observability.MetricsAddr != "127.0.0.1:9321" {
		t.Errorf("Unexpected metrics addr: %s", cfg.Observability.MetricsAddr)
	}

	months, err := cfg.CalendarMonths()
	if err != nil {
		t.Fatalf("CalendarMonths failed: %v", err)
	}
	if months[payload.Month{Year: 2025, Month: time.December}] != 22 {
		t.Errorf("Unexpected calendar: %v", months)
	}
	if months[payload.Month{Year: 2026, Month: time.January}] != 17 {
		t.Errorf("Unexpected calendar: %v", months)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `data_dir = "./somewhere"`
	tmpfile, err := os.CreateTemp("", "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	tmpfile.Write([]byte(content))
	tmpfile.Close()

	cfg, _ := Load(tmpfile.Name())
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRebuildsPerMinute != 12 {
		t.Errorf("Expected default rebuild cap 12, got %d", cfg.Watch.MaxRebuildsPerMinute)
	}
	if cfg.Sources.Operational != "operational.csv" || cfg.Sources.Clients != "clients.csv" {
		t.Errorf("Unexpected default sources: %+v", cfg.Sources)
	}
	if cfg.Output.HTML != "dist/dashboard.html" {
		t.Errorf("Unexpected default HTML path: %s", cfg.Output.HTML)
	}
	if cfg.History.Path != ".opsboard/history.db" {
		t.Errorf("Unexpected default history path: %s", cfg.History.Path)
	}
	if len(cfg.Watch.ExcludeFiles) == 0 {
		t.Error("Expected default file exclude patterns")
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}

	tmpfile, _ := os.CreateTemp("", "badconfig*.toml")
	defer os.Remove(tmpfile.Name())
	tmpfile.Write([]byte("bad = toml = format"))
	tmpfile.Close()

	_, err = Load(tmpfile.Name())
	if err == nil {
		t.Error("Expected error for malformed TOML")
	}
}

func TestCalendarMonthsRejectsBadKeys(t *testing.T) {
	cfg := Default()
	cfg.Calendar = map[string]int{"December 2025": 22}
	if _, err := cfg.CalendarMonths(); err == nil {
		t.Error("Expected error for a non YYYY-MM key")
	}

	cfg.Calendar = map[string]int{"2025-12": -3}
	if _, err := cfg.CalendarMonths(); err == nil {
		t.Error("Expected error for negative working days")
	}
}
