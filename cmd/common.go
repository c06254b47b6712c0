// Package cmd holds the hwscan subcommands.
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/smazurov/hwscan/internal/config"
	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/smazurov/hwscan/internal/platform"
)

// bindScanFlags registers the flags shared by commands that scan. Flag names
// match config.ScanOptions so set flags win over file and environment.
func bindScanFlags(c *cobra.Command, opts *config.ScanOptions) {
	f := c.Flags()
	f.StringVarP(&opts.Config, "config", "c", "", "Path to configuration file")
	f.StringSliceVar(&opts.Drivers, "drivers", nil, "Driver stacks to scan, in order (vaapi, nvidia, v4l2m2m)")
	f.StringSliceVar(&opts.Codecs, "codecs", nil, "Codecs to probe (default all)")
	f.StringVar(&opts.Simulate, "simulate", "", "Scan a simulated host described by a TOML fixture")
	f.StringVar(&opts.LoggingLevel, "logging-level", "", "Logging level (debug, info, warn, error)")
	f.StringVar(&opts.LoggingFormat, "logging-format", "", "Logging format (text, json)")
}

// loadScanOptions resolves opts and sets up logging on stderr, leaving
// stdout to the command output.
func loadScanOptions(c *cobra.Command, opts *config.ScanOptions) error {
	if err := config.LoadConfig(opts, c); err != nil {
		return err
	}
	logging.Initialize(cliLoggingConfig(*opts))
	return nil
}

func cliLoggingConfig(opts config.ScanOptions) logging.Config {
	cfg := config.LoadLoggingConfig(opts.Config)
	if opts.LoggingLevel != "" {
		cfg.Level = opts.LoggingLevel
	}
	if opts.LoggingFormat != "" {
		cfg.Format = opts.LoggingFormat
	}
	cfg.Output = logging.OutputStderr
	return cfg
}

func newEnumerator(opts config.ScanOptions) (*hwscan.Enumerator, error) {
	return platform.NewEnumerator(platform.Config{
		Drivers:  opts.Drivers,
		Simulate: opts.Simulate,
	}, opts.Codecs)
}

// WatchLogLevels applies logging level changes from the config file until
// ctx is done. Without a config file it returns at once. Watcher failures
// are logged, never fatal.
func WatchLogLevels(ctx context.Context, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	watcher := config.NewConfigWatcher(path, config.LoadLoggingConfigE, logger)
	unsubscribe := watcher.OnReload(func(cfg logging.Config) {
		logging.UpdateLevels(cfg)
		logger.Info("Logging levels reloaded", "level", cfg.Level)
	})
	defer unsubscribe()

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Config watcher stopped", "path", path, "error", err)
	}
	return nil
}
