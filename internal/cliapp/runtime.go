package cliapp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	coreapp "opsboard/internal/app"
	"opsboard/internal/config"
	"opsboard/internal/shared/observability"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("opsboard v%s\n", versionString)
		return 0
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	applyModeOptions(&opts, cfg)

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return 1
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	app, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() { _ = app.Close() }()

	if cfg.Observability.MetricsAddr != "" {
		obs := observability.NewObservabilityServer(cfg.Observability.MetricsAddr, app)
		if err := obs.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() { _ = obs.Stop(context.Background()) }()
	}

	if err := app.Build(ctx); err != nil {
		slog.Error("initial build failed", "error", err)
		return 1
	}

	if opts.once {
		return 0
	}

	if err := app.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}

	if opts.ui {
		if err := runUI(app); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	select {}
}

// loadConfig resolves the effective configuration. An explicitly given
// path must load cleanly. The default path falls back to the checked-in
// example file, and when neither file exists the compiled-in defaults
// apply, so a bare `opsboard ./data` works without any setup.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path != defaultConfigPath {
		return nil, err
	}

	cfg, fallbackErr := config.Load("./opsboard.example.toml")
	if fallbackErr == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		if errors.Is(fallbackErr, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fallbackErr
	}
	return nil, err
}

// applyModeOptions folds command line choices into the loaded config. A
// positional argument overrides the configured data directory. UI mode
// suppresses terminal alerts; the summary would be drawn over the
// alternate screen.
func applyModeOptions(opts *cliOptions, cfg *config.Config) {
	if len(opts.args) > 0 {
		cfg.DataDir = opts.args[0]
	}
	if opts.ui {
		cfg.Alerts.Terminal = false
		cfg.Alerts.Beep = false
	}
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "opsboard", "opsboard.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "opsboard", "opsboard.log")
	}

	return "opsboard.log"
}
