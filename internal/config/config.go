// # internal/config/config.go
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"opsboard/internal/core/errors"
	"opsboard/internal/payload"
)

type Config struct {
	DataDir       string         `toml:"data_dir"`
	Sources       Sources        `toml:"sources"`
	Ingest        Ingest         `toml:"ingest"`
	Calendar      map[string]int `toml:"calendar"` // "2025-12" -> working days
	Output        Output         `toml:"output"`
	Watch         Watch          `toml:"watch"`
	Alerts        Alerts         `toml:"alerts"`
	History       History        `toml:"history"`
	Observability Observability  `toml:"observability"`
}

type Sources struct {
	Operational string `toml:"operational"`
	Clients     string `toml:"clients"`
}

type Ingest struct {
	ExcludeRows []string          `toml:"exclude_rows"` // Glob patterns for summary rows (e.g., total*)
	Aliases     map[string]string `toml:"aliases"`
}

type Output struct {
	HTML       string `toml:"html"`
	Payload    string `toml:"payload"`
	TSV        string `toml:"tsv"`
	PublishDir string `toml:"publish_dir"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerMinute int           `toml:"max_rebuilds_per_minute"`
	ExcludeFiles         []string      `toml:"exclude_files"`
	ExcludeDirs          []string      `toml:"exclude_dirs"`
}

type Alerts struct {
	Beep     bool `toml:"beep"`
	Terminal bool `toml:"terminal"`
}

type History struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	TrendWindow int    `toml:"trend_window"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default is the configuration used when no config file exists at all.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Sources.Operational == "" {
		cfg.Sources.Operational = "operational.csv"
	}
	if cfg.Sources.Clients == "" {
		cfg.Sources.Clients = "clients.csv"
	}
	if cfg.Output.HTML == "" {
		cfg.Output.HTML = "dist/dashboard.html"
	}
	if cfg.Output.Payload == "" {
		cfg.Output.Payload = "dist/payload.json"
	}

	// Default debounce if not set
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerMinute == 0 {
		cfg.Watch.MaxRebuildsPerMinute = 12
	}
	if len(cfg.Watch.ExcludeFiles) == 0 {
		cfg.Watch.ExcludeFiles = []string{"~$*", "*.tmp", ".#*", "*.swp"}
	}
	if len(cfg.Watch.ExcludeDirs) == 0 {
		cfg.Watch.ExcludeDirs = []string{".git"}
	}

	if cfg.History.Path == "" {
		cfg.History.Path = ".opsboard/history.db"
	}
	if cfg.History.TrendWindow == 0 {
		cfg.History.TrendWindow = 5
	}
}

// CalendarMonths converts the raw calendar table into typed months. A
// key that does not parse as YYYY-MM or a negative day count is a
// config error, not a skippable record.
func (c *Config) CalendarMonths() (map[payload.Month]int, error) {
	if len(c.Calendar) == 0 {
		return nil, nil
	}

	out := make(map[payload.Month]int, len(c.Calendar))
	for key, days := range c.Calendar {
		m, err := payload.ParseMonth(key)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeIngest, "calendar month key is not YYYY-MM"),
				errors.CtxField, key)
		}
		if days < 0 {
			return nil, errors.AddContext(
				errors.New(errors.CodeIngest, "calendar working days must not be negative"),
				errors.CtxField, key)
		}
		out[m] = days
	}
	return out, nil
}
