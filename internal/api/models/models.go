// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"time"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/version"
)

// HealthData reports service state.
type HealthData struct {
	Status    string     `json:"status" example:"ok" doc:"ok, degraded when the latest scan failed, starting before the first scan"`
	Message   string     `json:"message" example:"2 device(s)" doc:"Status message"`
	ScannedAt *time.Time `json:"scanned_at,omitempty" doc:"Time of the latest successful scan"`
}

// HealthResponse wraps HealthData.
type HealthResponse struct {
	Body HealthData
}

// DevicesData is the latest snapshot.
type DevicesData struct {
	Devices    []DeviceData `json:"devices" doc:"Capable devices in discovery order"`
	Count      int          `json:"count" example:"2" doc:"Number of devices"`
	ScannedAt  time.Time    `json:"scanned_at" doc:"Scan start time"`
	DurationMS float64      `json:"duration_ms" example:"41.7" doc:"Scan duration in milliseconds"`
	Trigger    string       `json:"trigger" example:"startup" doc:"What started the scan"`
}

// DeviceData is one device with its selector.
type DeviceData struct {
	ID string `json:"id" example:"vaapi:/dev/dri/renderD128" doc:"Device identifier, usable in /api/devices/{device_id}"`
	hwscan.DeviceCapability
}

// DevicesResponse wraps DevicesData.
type DevicesResponse struct {
	Body DevicesData
}

// DeviceInput selects one device.
type DeviceInput struct {
	DeviceID string `path:"device_id" example:"nvidia:0" doc:"Device ID, or driver:ordinal"`
}

// DeviceResponse wraps DeviceData.
type DeviceResponse struct {
	Body DeviceData
}

// CodecData lists the devices able to decode and encode one codec.
type CodecData struct {
	Codec    hwscan.Codec `json:"codec" example:"hevc" doc:"Codec name"`
	Decoders []string     `json:"decoders" doc:"IDs of devices that decode the codec"`
	Encoders []string     `json:"encoders" doc:"IDs of devices that encode the codec"`
}

// CodecsData groups the snapshot by codec.
type CodecsData struct {
	Codecs []CodecData `json:"codecs" doc:"Codecs supported by at least one device"`
}

// CodecsResponse wraps CodecsData.
type CodecsResponse struct {
	Body CodecsData
}

// VersionResponse wraps build metadata.
type VersionResponse struct {
	Body version.Info
}

// LogsInput limits the returned log history.
type LogsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Newest entries to return, 0 for all"`
}

// LogEntry is one buffered log line.
type LogEntry struct {
	Seq        uint64         `json:"seq" doc:"Monotonic sequence number"`
	Timestamp  time.Time      `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"scan" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// LogsResponse wraps buffered log entries.
type LogsResponse struct {
	Body struct {
		Entries []LogEntry `json:"entries" doc:"Entries, oldest first"`
	}
}
