package events

import "github.com/smazurov/hwscan/internal/hwscan"

// Event type constants for kelindar/event.
const (
	TypeScanCompleted uint32 = iota + 1
	TypeScanFailed
	TypeDeviceAdded
	TypeDeviceRemoved
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ScanCompletedEvent is published after every successful enumeration.
type ScanCompletedEvent struct {
	Devices    int     `json:"devices" example:"2" doc:"Number of capable devices found"`
	DurationMS float64 `json:"duration_ms" example:"41.7" doc:"Scan duration in milliseconds"`
	Trigger    string  `json:"trigger" example:"hotplug" doc:"What started the scan: startup, api, hotplug"`
	Timestamp  string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Scan completion time"`
}

// Type returns the event type identifier for ScanCompletedEvent.
func (e ScanCompletedEvent) Type() uint32 { return TypeScanCompleted }

// ScanFailedEvent is published when an enumeration aborts.
type ScanFailedEvent struct {
	Status    int32  `json:"status" example:"1" doc:"Status code scan_devices would return"`
	Error     string `json:"error" example:"platform nvidia: cuDeviceGetCount: CUDA_ERROR_UNKNOWN" doc:"Failure description"`
	Trigger   string `json:"trigger" example:"api" doc:"What started the scan"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Failure time"`
}

// Type returns the event type identifier for ScanFailedEvent.
func (e ScanFailedEvent) Type() uint32 { return TypeScanFailed }

// DeviceAddedEvent is published for a device that was not in the previous
// snapshot.
type DeviceAddedEvent struct {
	DeviceID  string                  `json:"device_id" example:"vaapi:0" doc:"Device identifier"`
	Device    hwscan.DeviceCapability `json:"device" doc:"Device capabilities"`
	Timestamp string                  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceAddedEvent.
func (e DeviceAddedEvent) Type() uint32 { return TypeDeviceAdded }

// DeviceRemovedEvent is published for a device missing from the latest
// snapshot.
type DeviceRemovedEvent struct {
	DeviceID  string `json:"device_id" example:"nvidia:1" doc:"Device identifier"`
	Name      string `json:"name" example:"NVIDIA GeForce RTX 3060" doc:"Last known device name"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceRemovedEvent.
func (e DeviceRemovedEvent) Type() uint32 { return TypeDeviceRemoved }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2026-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"scan" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
