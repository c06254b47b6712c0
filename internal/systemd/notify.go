// Package systemd reports service state to systemd through sd_notify.
// Outside a Type=notify unit every call is a no-op.
package systemd

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NOTIFY_SOCKET stays in the environment after each call.
const unsetEnv = false

// Notifier sends state changes to the service manager.
type Notifier struct{}

// NewNotifier returns a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Ready tells systemd startup is complete.
func (n *Notifier) Ready() (bool, error) {
	return daemon.SdNotify(unsetEnv, daemon.SdNotifyReady)
}

// Stopping tells systemd shutdown has begun.
func (n *Notifier) Stopping() (bool, error) {
	return daemon.SdNotify(unsetEnv, daemon.SdNotifyStopping)
}

// Status publishes a one-line status shown by systemctl status.
func (n *Notifier) Status(format string, args ...any) (bool, error) {
	return daemon.SdNotify(unsetEnv, "STATUS="+fmt.Sprintf(format, args...))
}

// RunWatchdog pings the watchdog at half the configured interval until ctx
// is done. It returns at once when the unit has no WatchdogSec.
func (n *Notifier) RunWatchdog(ctx context.Context) error {
	interval, err := daemon.SdWatchdogEnabled(unsetEnv)
	if err != nil {
		return err
	}
	if interval == 0 {
		return nil
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := daemon.SdNotify(unsetEnv, daemon.SdNotifyWatchdog); err != nil {
				return err
			}
		}
	}
}
