//go:build !linux

package hotplug

import (
	"context"
	"errors"
)

// ErrNotSupported is returned on platforms without netlink uevents.
var ErrNotSupported = errors.New("hotplug: not supported on this platform")

// Subsystems that carry codec hardware.
const (
	SubsystemDRM         = "drm"
	SubsystemVideo4Linux = "video4linux"
)

// Action constants for device events.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
)

// Event represents a kernel device event.
type Event struct {
	Action    string
	KObj      string
	Subsystem string
	DevType   string
	DevName   string
	DevPath   string
	Env       map[string]string
}

func (e Event) DevNode() string    { return "" }
func (e Event) IsRenderNode() bool { return false }

// Monitor is unavailable on this platform.
type Monitor struct{}

// NewMonitor returns ErrNotSupported.
func NewMonitor() (*Monitor, error) { return nil, ErrNotSupported }

func (m *Monitor) AddSubsystemFilter(string) {}

func (m *Monitor) Close() error { return nil }

func (m *Monitor) Run(context.Context, chan<- Event) error { return ErrNotSupported }
