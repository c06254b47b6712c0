//go:build linux

// Package hotplug provides pure Go device hotplug monitoring using netlink.
//
// This package monitors kernel device events without cgo by directly listening
// to NETLINK_KOBJECT_UEVENT messages from the kernel. Codec scanners filter
// on the drm and video4linux subsystems to notice GPUs and codec nodes
// coming and going.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Action constants for device events.
const (
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionChange  = "change"
	ActionMove    = "move"
	ActionBind    = "bind"
	ActionUnbind  = "unbind"
	ActionOnline  = "online"
	ActionOffline = "offline"
)

// Subsystems that carry codec hardware.
const (
	SubsystemDRM         = "drm"
	SubsystemVideo4Linux = "video4linux"
	SubsystemPCI         = "pci"
	SubsystemUSB         = "usb"
)

// Event represents a kernel device event.
type Event struct {
	Action    string            // "add", "remove", "change", etc.
	KObj      string            // Kernel object path: /devices/pci0000:00/...
	Subsystem string            // "drm", "video4linux", "pci", etc.
	DevType   string            // Device type if available
	DevName   string            // Device name relative to /dev (e.g., "dri/renderD128")
	DevPath   string            // Sysfs path (e.g., "/devices/pci0000:00/0000:00:02.0/drm/renderD128")
	Env       map[string]string // All environment variables from the event
}

// DevNode returns the /dev path of the event's device node, "" when the
// event is not about a device node.
func (e Event) DevNode() string {
	if e.DevName == "" {
		return ""
	}
	if strings.HasPrefix(e.DevName, "/") {
		return e.DevName
	}
	return "/dev/" + e.DevName
}

// IsRenderNode reports whether the event concerns a DRM render node.
func (e Event) IsRenderNode() bool {
	return e.Subsystem == SubsystemDRM && strings.HasPrefix(e.DevName, "dri/renderD")
}

// Monitor listens for kernel device events via netlink.
type Monitor struct {
	fd        int
	filters   map[string]struct{}
	filtersMu sync.RWMutex
}

// NewMonitor creates a new device event monitor.
func NewMonitor() (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, err
	}

	// Group 1 is the kernel broadcast group; udev rebroadcasts on group 2.
	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: 1,
	}

	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// Read timeout so Run can check its context periodically.
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &Monitor{
		fd:      fd,
		filters: make(map[string]struct{}),
	}, nil
}

// AddSubsystemFilter adds a subsystem filter. Only events from matching
// subsystems will be returned. If no filters are added, all events pass through.
// This method is safe for concurrent use.
func (m *Monitor) AddSubsystemFilter(subsystem string) {
	m.filtersMu.Lock()
	m.filters[subsystem] = struct{}{}
	m.filtersMu.Unlock()
}

// Close releases the monitor resources.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// accepts reports whether events of subsystem pass the filters.
func (m *Monitor) accepts(subsystem string) bool {
	m.filtersMu.RLock()
	defer m.filtersMu.RUnlock()
	if len(m.filters) == 0 {
		return true
	}
	_, ok := m.filters[subsystem]
	return ok
}

// Run delivers matching events until ctx is done or the socket fails.
// events is closed when Run returns.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	buf := make([]byte, 8192)
	for ctx.Err() == nil {
		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return err
		}

		ev, ok := ParseUEvent(buf[:n])
		if !ok || !m.accepts(ev.Subsystem) {
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

// ParseUEvent decodes a kernel uevent datagram:
//
//	ACTION@DEVPATH\0KEY=VALUE\0KEY=VALUE\0...
//
// Only kernel broadcasts are expected; udev's rebroadcast format is not
// handled because the monitor never joins that group.
func ParseUEvent(data []byte) (Event, bool) {
	fields := bytes.Split(bytes.TrimRight(data, "\x00"), []byte{0})
	action, kobj, found := strings.Cut(string(fields[0]), "@")
	if !found || action == "" || kobj == "" {
		return Event{}, false
	}

	ev := Event{Action: action, KObj: kobj, Env: make(map[string]string, len(fields)-1)}
	for _, field := range fields[1:] {
		key, value, found := strings.Cut(string(field), "=")
		if !found || key == "" {
			continue
		}
		ev.Env[key] = value
	}
	ev.Subsystem = ev.Env["SUBSYSTEM"]
	ev.DevType = ev.Env["DEVTYPE"]
	ev.DevName = ev.Env["DEVNAME"]
	ev.DevPath = ev.Env["DEVPATH"]
	return ev, true
}
