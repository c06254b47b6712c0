//go:build linux

package hotplug

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// uevent joins a kernel uevent header and properties into one datagram.
func uevent(header string, props ...string) []byte {
	return []byte(header + "\x00" + strings.Join(props, "\x00") + "\x00")
}

var (
	renderAdd = uevent("add@/devices/pci0000:00/0000:00:02.0/drm/renderD128",
		"ACTION=add", "DEVPATH=/devices/pci0000:00/0000:00:02.0/drm/renderD128",
		"SUBSYSTEM=drm", "DEVNAME=dri/renderD128", "DEVTYPE=drm_minor", "MAJOR=226", "MINOR=128")
	renderRemove = uevent("remove@/devices/pci0000:00/0000:01:00.0/drm/renderD129",
		"SUBSYSTEM=drm", "DEVNAME=dri/renderD129", "DEVTYPE=drm_minor")
	cardChange = uevent("change@/devices/pci0000:00/0000:00:02.0/drm/card0",
		"SUBSYSTEM=drm", "DEVNAME=dri/card0", "DEVTYPE=drm_minor", "HOTPLUG=1")
	m2mAdd = uevent("add@/devices/platform/soc/fdea0000.video-codec/video4linux/video10",
		"SUBSYSTEM=video4linux", "DEVNAME=video10", "MAJOR=81", "MINOR=10")
	usbAdd = uevent("add@/devices/pci0000:00/0000:00:14.0/usb1/1-2",
		"SUBSYSTEM=usb", "DEVTYPE=usb_device", "DEVNAME=bus/usb/001/004")
)

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		action    string
		subsystem string
		devNode   string
		render    bool
	}{
		{"render node add", renderAdd, ActionAdd, SubsystemDRM, "/dev/dri/renderD128", true},
		{"render node remove", renderRemove, ActionRemove, SubsystemDRM, "/dev/dri/renderD129", true},
		{"primary node change", cardChange, ActionChange, SubsystemDRM, "/dev/dri/card0", false},
		{"m2m codec node add", m2mAdd, ActionAdd, SubsystemVideo4Linux, "/dev/video10", false},
		{"bus event without node", uevent("bind@/devices/pci0000:00/0000:01:00.0", "SUBSYSTEM=pci"), ActionBind, SubsystemPCI, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseUEvent(tt.input)
			if !ok {
				t.Fatalf("ParseUEvent rejected %q", tt.input)
			}
			if ev.Action != tt.action || ev.Subsystem != tt.subsystem {
				t.Errorf("got %s/%s, want %s/%s", ev.Action, ev.Subsystem, tt.action, tt.subsystem)
			}
			if got := ev.DevNode(); got != tt.devNode {
				t.Errorf("DevNode() = %q, want %q", got, tt.devNode)
			}
			if got := ev.IsRenderNode(); got != tt.render {
				t.Errorf("IsRenderNode() = %v, want %v", got, tt.render)
			}
		})
	}
}

func TestParseUEventFields(t *testing.T) {
	ev, ok := ParseUEvent(renderAdd)
	if !ok {
		t.Fatal("ParseUEvent rejected a render node event")
	}
	if ev.KObj != "/devices/pci0000:00/0000:00:02.0/drm/renderD128" {
		t.Errorf("KObj = %q", ev.KObj)
	}
	if ev.DevPath != ev.KObj {
		t.Errorf("DevPath = %q, want %q", ev.DevPath, ev.KObj)
	}
	if ev.DevType != "drm_minor" {
		t.Errorf("DevType = %q", ev.DevType)
	}
	if ev.Env["MINOR"] != "128" || ev.Env["MAJOR"] != "226" {
		t.Errorf("major/minor not kept in Env: %v", ev.Env)
	}
}

func TestParseUEventRejects(t *testing.T) {
	inputs := map[string][]byte{
		"nil":            nil,
		"only nulls":     []byte("\x00\x00"),
		"no separator":   []byte("add/devices/drm/renderD128\x00SUBSYSTEM=drm\x00"),
		"missing action": []byte("@/devices/drm/renderD128\x00"),
		"missing path":   []byte("add@\x00SUBSYSTEM=drm\x00"),
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			if ev, ok := ParseUEvent(input); ok {
				t.Errorf("ParseUEvent(%q) = %+v, want rejection", input, ev)
			}
		})
	}
}

func TestParseUEventSkipsMalformedProperties(t *testing.T) {
	ev, ok := ParseUEvent(uevent("add@/devices/virtual/video4linux/video11",
		"SUBSYSTEM=video4linux", "garbage", "=novalue", "DEVNAME=video11"))
	if !ok {
		t.Fatal("ParseUEvent rejected event with stray properties")
	}
	if len(ev.Env) != 2 {
		t.Errorf("Env = %v, want only SUBSYSTEM and DEVNAME", ev.Env)
	}
	if ev.DevNode() != "/dev/video11" {
		t.Errorf("DevNode() = %q", ev.DevNode())
	}
}

// socketMonitor returns a Monitor reading from one end of a datagram
// socketpair and a function that writes to the other end.
func socketMonitor(t *testing.T) (*Monitor, func([]byte)) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	tv := unix.Timeval{Usec: 50000}
	if err := unix.SetsockoptTimeval(fds[0], unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		t.Fatalf("SO_RCVTIMEO: %v", err)
	}
	m := &Monitor{fd: fds[0], filters: make(map[string]struct{})}
	t.Cleanup(func() {
		_ = m.Close()
		_ = unix.Close(fds[1])
	})
	return m, func(b []byte) {
		if _, err := unix.Write(fds[1], b); err != nil {
			t.Fatalf("write uevent: %v", err)
		}
	}
}

func TestMonitorRunFiltersCodecSubsystems(t *testing.T) {
	m, send := socketMonitor(t)
	m.AddSubsystemFilter(SubsystemDRM)
	m.AddSubsystemFilter(SubsystemVideo4Linux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 8)
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, events) }()

	for _, msg := range [][]byte{usbAdd, renderAdd, []byte("junk"), m2mAdd, renderRemove} {
		send(msg)
	}

	var got []string
	for len(got) < 3 {
		select {
		case ev := <-events:
			got = append(got, ev.Action+" "+ev.DevNode())
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, received %v", got)
		}
	}
	want := []string{"add /dev/dri/renderD128", "add /dev/video10", "remove /dev/dri/renderD129"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if _, open := <-events; open {
		t.Error("events channel should be closed after Run returns")
	}
}

func TestMonitorRunWithoutFilters(t *testing.T) {
	m, send := socketMonitor(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 1)
	go func() { _ = m.Run(ctx, events) }()

	send(usbAdd)
	select {
	case ev := <-events:
		if ev.Subsystem != SubsystemUSB {
			t.Errorf("Subsystem = %q, want usb", ev.Subsystem)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("unfiltered monitor dropped the event")
	}
}

func TestMonitorRunCancelledBeforeStart(t *testing.T) {
	m, _ := socketMonitor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan Event)
	if err := m.Run(ctx, events); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if _, open := <-events; open {
		t.Error("events channel should be closed")
	}
}

func TestNewMonitor(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Skipf("netlink uevent socket unavailable: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
