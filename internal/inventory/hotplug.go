package inventory

import (
	"context"
	"time"

	"github.com/smazurov/hwscan/pkg/linuxav/hotplug"
)

// DefaultDebounce coalesces the burst of uevents one device produces.
const DefaultDebounce = 500 * time.Millisecond

// Relevant reports whether a uevent can change the scan result: a render
// node or a video4linux node appearing or going away.
func Relevant(ev hotplug.Event) bool {
	if ev.Action != hotplug.ActionAdd && ev.Action != hotplug.ActionRemove {
		return false
	}
	switch ev.Subsystem {
	case hotplug.SubsystemDRM:
		return ev.IsRenderNode()
	case hotplug.SubsystemVideo4Linux:
		return true
	default:
		return false
	}
}

// Watch rescans once uevents stop arriving for debounce. It returns when ctx
// is done or uevents is closed.
func (s *Service) Watch(ctx context.Context, uevents <-chan hotplug.Event, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-uevents:
			if !ok {
				return nil
			}
			if !Relevant(ev) {
				continue
			}
			s.logger.Debug("Device event", "action", ev.Action, "subsystem", ev.Subsystem, "node", ev.DevNode())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			// Rescan logs and publishes its own failures.
			_, _ = s.Rescan(ctx, TriggerHotplug)
		}
	}
}
