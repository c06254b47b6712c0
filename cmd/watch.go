package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/smazurov/hwscan/internal/config"
	"github.com/smazurov/hwscan/internal/events"
	"github.com/smazurov/hwscan/internal/inventory"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/smazurov/hwscan/pkg/linuxav/hotplug"
)

var watchOpts config.ScanOptions

// WatchCmd rescans whenever a render node or video device comes or goes.
var WatchCmd = &cobra.Command{
	Use:          "watch",
	Short:        "Rescan on hotplug and print device changes",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadScanOptions(cmd, &watchOpts); err != nil {
			return err
		}
		logger := logging.GetLogger("watch")

		enum, err := newEnumerator(watchOpts)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus := events.New()
		unsubscribe := printDeviceChanges(os.Stdout, bus)
		defer unsubscribe()

		inv := inventory.New(enum, inventory.WithEventBus(bus))
		snap, err := inv.Rescan(ctx, inventory.TriggerCLI)
		if err != nil {
			return fmt.Errorf("initial scan failed: %w", err)
		}
		fmt.Fprintf(os.Stdout, "%d devices, watching for changes\n", len(snap.Devices))

		debounce, _ := cmd.Flags().GetDuration("debounce")
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return WatchHotplug(gctx, inv, debounce, logger) })
		g.Go(func() error { return WatchLogLevels(gctx, watchOpts.Config, logger) })
		return g.Wait()
	},
}

func init() {
	bindScanFlags(WatchCmd, &watchOpts)
	WatchCmd.Flags().Duration("debounce", inventory.DefaultDebounce, "Quiet period after a uevent before rescanning")
}

func printDeviceChanges(w io.Writer, bus *events.Bus) func() {
	unsubAdded := bus.Subscribe(func(e events.DeviceAddedEvent) {
		fmt.Fprintf(w, "%s + %s %s\n", e.Timestamp, e.DeviceID, e.Device.Name)
	})
	unsubRemoved := bus.Subscribe(func(e events.DeviceRemovedEvent) {
		fmt.Fprintf(w, "%s - %s %s\n", e.Timestamp, e.DeviceID, e.Name)
	})
	unsubFailed := bus.Subscribe(func(e events.ScanFailedEvent) {
		fmt.Fprintf(w, "%s ! rescan failed: %s\n", e.Timestamp, e.Error)
	})
	return func() {
		unsubAdded()
		unsubRemoved()
		unsubFailed()
	}
}

// WatchHotplug feeds DRM and video4linux uevents into inv until ctx is done.
// Without a netlink socket it logs a warning and returns nil, leaving the
// inventory to API or manual rescans.
func WatchHotplug(ctx context.Context, inv *inventory.Service, debounce time.Duration, logger *slog.Logger) error {
	monitor, err := hotplug.NewMonitor()
	if err != nil {
		logger.Warn("Hotplug monitoring unavailable", "error", err)
		return nil
	}
	defer monitor.Close()
	monitor.AddSubsystemFilter(hotplug.SubsystemDRM)
	monitor.AddSubsystemFilter(hotplug.SubsystemVideo4Linux)

	uevents := make(chan hotplug.Event, 16)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := monitor.Run(gctx, uevents); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("hotplug monitor: %w", err)
		}
		return nil
	})
	g.Go(func() error { return inv.Watch(gctx, uevents, debounce) })
	logger.Info("Hotplug monitoring started")
	return g.Wait()
}
