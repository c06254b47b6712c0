package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"golang.org/x/sync/errgroup"

	"github.com/smazurov/hwscan/cmd"
	"github.com/smazurov/hwscan/internal/api"
	"github.com/smazurov/hwscan/internal/config"
	"github.com/smazurov/hwscan/internal/events"
	"github.com/smazurov/hwscan/internal/inventory"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/smazurov/hwscan/internal/metrics"
	"github.com/smazurov/hwscan/internal/platform"
	"github.com/smazurov/hwscan/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"hwscan.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8095" toml:"server.port" env:"SERVER_PORT"`

	// Scan settings
	Drivers  string `help:"Driver stacks to scan, comma separated (vaapi, nvidia, v4l2m2m)" toml:"scan.drivers" env:"DRIVERS"`
	Codecs   string `help:"Codecs to probe, comma separated (default all)" toml:"scan.codecs" env:"CODECS"`
	Simulate string `help:"Scan a simulated host described by a TOML fixture" toml:"scan.simulate" env:"SIMULATE"`
	Hotplug  bool   `help:"Rescan when codec devices appear or disappear" default:"true" toml:"scan.hotplug" env:"HOTPLUG"`

	// Auth settings
	AuthUsername string `help:"Basic auth username, empty disables auth" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOG_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOG_FORMAT"`
	LoggingScan      string `help:"Enumerator logging level" toml:"logging.scan" env:"LOGGING_SCAN"`
	LoggingVaapi     string `help:"VA-API platform logging level" toml:"logging.vaapi" env:"LOGGING_VAAPI"`
	LoggingNvidia    string `help:"NVIDIA platform logging level" toml:"logging.nvidia" env:"LOGGING_NVIDIA"`
	LoggingV4l2m2m   string `help:"V4L2 mem2mem platform logging level" toml:"logging.v4l2m2m" env:"LOGGING_V4L2M2M"`
	LoggingInventory string `help:"Inventory logging level" toml:"logging.inventory" env:"LOGGING_INVENTORY"`
	LoggingAPI       string `help:"API logging level" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP      string `help:"HTTP request logging level" toml:"logging.http" env:"LOGGING_HTTP"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"scan":      opts.LoggingScan,
				"vaapi":     opts.LoggingVaapi,
				"nvidia":    opts.LoggingNvidia,
				"v4l2m2m":   opts.LoggingV4l2m2m,
				"inventory": opts.LoggingInventory,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingHTTP,
			},
		})
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		hooks.OnStart(func() {
			defer close(done)
			if err := serve(ctx, opts, logger); err != nil {
				logger.Error("Server failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			cancel()
			select {
			case <-done:
			case <-time.After(10 * time.Second):
				logger.Warn("Shutdown timed out")
			}
		})
	})

	cli.Root().Use = "hwscan"
	cli.Root().Short = "Hardware video codec scanner"
	cli.Root().AddCommand(cmd.ScanCmd, cmd.InspectCmd, cmd.WatchCmd, cmd.VersionCmd)

	cli.Run()
}

// serve runs the HTTP API until ctx is cancelled, keeping the inventory
// current through hotplug and reloading logging levels from the config file.
func serve(ctx context.Context, opts *Options, logger *slog.Logger) error {
	enum, err := platform.NewEnumerator(platform.Config{
		Drivers:  config.SplitList(opts.Drivers),
		Simulate: opts.Simulate,
	}, config.SplitList(opts.Codecs))
	if err != nil {
		return err
	}

	// Create event bus for in-process event handling
	eventBus := events.New()
	logging.SetLogCallback(func(entry logging.LogEntry) {
		eventBus.Publish(api.LogEvent(entry))
	})
	defer logging.SetLogCallback(nil)

	inv := inventory.New(enum, inventory.WithEventBus(eventBus))

	server := api.NewServer(&api.Options{
		AuthUsername:   opts.AuthUsername,
		AuthPassword:   opts.AuthPassword,
		Inventory:      inv,
		EventBus:       eventBus,
		MetricsHandler: metrics.Handler(),
	})

	notifier := systemd.NewNotifier()
	unsubscribe := eventBus.Subscribe(func(e events.ScanCompletedEvent) {
		_, _ = notifier.Status("%d codec devices, last %s scan %s", e.Devices, e.Trigger, e.Timestamp)
	})
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return server.Run(gctx, opts.Port) })

	g.Go(func() error {
		// A failed first scan is reported through /api/health and the
		// event stream; the server keeps running.
		if _, scanErr := inv.Rescan(gctx, inventory.TriggerStartup); scanErr != nil {
			logger.Warn("Initial scan failed", "error", scanErr)
		}
		if _, notifyErr := notifier.Ready(); notifyErr != nil {
			logger.Warn("Failed to notify systemd", "error", notifyErr)
		}
		return nil
	})

	g.Go(func() error { return notifier.RunWatchdog(gctx) })

	if opts.Hotplug && opts.Simulate == "" {
		g.Go(func() error {
			return cmd.WatchHotplug(gctx, inv, inventory.DefaultDebounce, logger)
		})
	}

	if _, statErr := os.Stat(opts.Config); statErr == nil {
		g.Go(func() error {
			return cmd.WatchLogLevels(gctx, opts.Config, logger)
		})
	}

	err = g.Wait()
	_, _ = notifier.Stopping()
	return err
}
