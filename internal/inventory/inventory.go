// Package inventory keeps the latest scan snapshot for the CLI and the HTTP
// API and reports what changed between scans.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/smazurov/hwscan/internal/abi"
	"github.com/smazurov/hwscan/internal/events"
	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/smazurov/hwscan/internal/metrics"
)

// Scan triggers.
const (
	TriggerStartup = "startup"
	TriggerAPI     = "api"
	TriggerHotplug = "hotplug"
	TriggerCLI     = "cli"
)

// ErrNoSnapshot is returned before the first successful scan.
var ErrNoSnapshot = errors.New("no scan has completed yet")

// Scanner produces one device list. *hwscan.Enumerator implements it.
type Scanner interface {
	Enumerate() ([]hwscan.DeviceCapability, error)
}

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Snapshot is the result of one successful scan.
type Snapshot struct {
	Devices   []hwscan.DeviceCapability
	ScannedAt time.Time
	Duration  time.Duration
	Trigger   string
}

// Diff lists device IDs that appeared, disappeared or changed their
// capabilities between two snapshots.
type Diff struct {
	Added   []hwscan.DeviceCapability
	Removed []hwscan.DeviceCapability
	Changed []hwscan.DeviceCapability
}

// Empty reports whether the snapshots were equivalent.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// CodecDevices names the devices able to decode or encode one codec.
type CodecDevices struct {
	Codec    hwscan.Codec `json:"codec"`
	Decoders []string     `json:"decoders"`
	Encoders []string     `json:"encoders"`
}

// Service holds the latest snapshot. Scans are serialized.
type Service struct {
	scanner Scanner
	bus     EventPublisher
	logger  *slog.Logger
	now     func() time.Time

	scanMu sync.Mutex

	mu       sync.RWMutex
	snapshot *Snapshot
	lastErr  error
}

// Option configures a Service.
type Option func(*Service)

// WithEventBus publishes scan and device events to bus.
func WithEventBus(bus EventPublisher) Option {
	return func(s *Service) { s.bus = bus }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service with no snapshot.
func New(scanner Scanner, opts ...Option) *Service {
	s := &Service{
		scanner: scanner,
		logger:  logging.GetLogger("inventory"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rescan enumerates devices, replaces the snapshot and publishes the
// difference. On failure the previous snapshot is kept.
func (s *Service) Rescan(ctx context.Context, trigger string) (Snapshot, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	start := s.now()
	devices, err := s.scanner.Enumerate()
	elapsed := s.now().Sub(start)

	if err != nil {
		metrics.ObserveScan(metrics.ResultFailed, elapsed)
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		s.logger.Error("Scan failed", "trigger", trigger, "error", err)
		s.publish(events.ScanFailedEvent{
			Status:    int32(abi.StatusFromError(err)),
			Error:     err.Error(),
			Trigger:   trigger,
			Timestamp: s.now().Format(time.RFC3339),
		})
		return Snapshot{}, err
	}

	snap := Snapshot{
		Devices:   devices,
		ScannedAt: start,
		Duration:  elapsed,
		Trigger:   trigger,
	}

	s.mu.Lock()
	var previous []hwscan.DeviceCapability
	first := s.snapshot == nil
	if !first {
		previous = s.snapshot.Devices
	}
	s.snapshot = &snap
	s.lastErr = nil
	s.mu.Unlock()

	metrics.ObserveScan(metrics.ResultOK, elapsed)
	metrics.SetSnapshot(devices, start)

	diff := Compare(previous, devices)
	s.logger.Info("Scan completed",
		"trigger", trigger,
		"devices", len(devices),
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"changed", len(diff.Changed),
		"duration", elapsed)
	s.publishDiff(diff)
	s.publish(events.ScanCompletedEvent{
		Devices:    len(devices),
		DurationMS: float64(elapsed.Microseconds()) / 1000,
		Trigger:    trigger,
		Timestamp:  s.now().Format(time.RFC3339),
	})

	return snap, nil
}

// Snapshot returns the latest snapshot.
func (s *Service) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		if s.lastErr != nil {
			return Snapshot{}, s.lastErr
		}
		return Snapshot{}, ErrNoSnapshot
	}
	return *s.snapshot, nil
}

// LastError returns the error of the latest scan, nil when it succeeded.
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Device looks a device up by its ID or by "driver:ordinal".
func (s *Service) Device(id string) (hwscan.DeviceCapability, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return hwscan.DeviceCapability{}, false
	}
	for _, d := range s.snapshot.Devices {
		if d.ID() == id || d.Driver.String()+":"+strconv.FormatUint(uint64(d.Ordinal), 10) == id {
			return d, true
		}
	}
	return hwscan.DeviceCapability{}, false
}

// Codecs groups the latest snapshot by codec, in codec order.
func (s *Service) Codecs() []CodecDevices {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil
	}
	return GroupByCodec(s.snapshot.Devices)
}

// GroupByCodec lists, for each codec any device supports, the IDs of the
// devices that decode and encode it.
func GroupByCodec(devices []hwscan.DeviceCapability) []CodecDevices {
	byCodec := make(map[hwscan.Codec]*CodecDevices)
	for _, d := range devices {
		for _, c := range d.Codecs {
			entry, ok := byCodec[c.Codec]
			if !ok {
				entry = &CodecDevices{Codec: c.Codec, Decoders: []string{}, Encoders: []string{}}
				byCodec[c.Codec] = entry
			}
			if c.Decode {
				entry.Decoders = append(entry.Decoders, d.ID())
			}
			if c.Encode {
				entry.Encoders = append(entry.Encoders, d.ID())
			}
		}
	}

	out := make([]CodecDevices, 0, len(byCodec))
	for _, entry := range byCodec {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codec < out[j].Codec })
	return out
}

// Compare diffs two device lists by device ID. Results follow the order of
// the list they come from.
func Compare(previous, current []hwscan.DeviceCapability) Diff {
	before := make(map[string]hwscan.DeviceCapability, len(previous))
	for _, d := range previous {
		before[d.ID()] = d
	}
	after := make(map[string]bool, len(current))

	var diff Diff
	for _, d := range current {
		id := d.ID()
		after[id] = true
		old, ok := before[id]
		switch {
		case !ok:
			diff.Added = append(diff.Added, d)
		case !sameCapabilities(old, d):
			diff.Changed = append(diff.Changed, d)
		}
	}
	for _, d := range previous {
		if !after[d.ID()] {
			diff.Removed = append(diff.Removed, d)
		}
	}
	return diff
}

func sameCapabilities(a, b hwscan.DeviceCapability) bool {
	if a.Name != b.Name || len(a.Codecs) != len(b.Codecs) {
		return false
	}
	for i := range a.Codecs {
		x, y := a.Codecs[i], b.Codecs[i]
		if x.Codec != y.Codec || x.Decode != y.Decode || x.Encode != y.Encode ||
			!slices.Equal(x.Decoding, y.Decoding) || !slices.Equal(x.Encoding, y.Encoding) {
			return false
		}
	}
	return true
}

// publishDiff reports a changed device as removed then added.
func (s *Service) publishDiff(diff Diff) {
	ts := s.now().Format(time.RFC3339)
	for _, d := range diff.Removed {
		s.publish(events.DeviceRemovedEvent{DeviceID: d.ID(), Name: d.Name, Timestamp: ts})
	}
	for _, d := range diff.Changed {
		s.publish(events.DeviceRemovedEvent{DeviceID: d.ID(), Name: d.Name, Timestamp: ts})
		s.publish(events.DeviceAddedEvent{DeviceID: d.ID(), Device: d, Timestamp: ts})
	}
	for _, d := range diff.Added {
		s.publish(events.DeviceAddedEvent{DeviceID: d.ID(), Device: d, Timestamp: ts})
	}
}

func (s *Service) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
