package hwscan

import (
	"errors"
	"log/slog"

	"github.com/smazurov/hwscan/internal/logging"
)

// Enumerator walks a set of platforms and builds the capability list.
// It keeps no state between calls.
type Enumerator struct {
	platforms []Platform
	codecs    []Codec
	logger    *slog.Logger
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithCodecs restricts probing to the given codecs. An empty list keeps the
// full enumeration.
func WithCodecs(codecs []Codec) Option {
	return func(e *Enumerator) {
		if len(codecs) > 0 {
			e.codecs = append([]Codec(nil), codecs...)
		}
	}
}

// WithLogger overrides the enumerator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enumerator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnumerator creates an enumerator over platforms, visited in order.
func NewEnumerator(platforms []Platform, opts ...Option) *Enumerator {
	e := &Enumerator{
		platforms: platforms,
		codecs:    AllCodecs(),
		logger:    logging.GetLogger("scan"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enumerate returns every device with at least one supported codec.
//
// A platform whose stack is missing is skipped. A platform whose device query
// fails aborts the scan with an *EnumerationError. A device that cannot be
// opened or probed is left out and the scan continues.
func (e *Enumerator) Enumerate() ([]DeviceCapability, error) {
	devices := make([]DeviceCapability, 0)

	for _, platform := range e.platforms {
		candidates, err := platform.Enumerate()
		if err != nil {
			if errors.Is(err, ErrPlatformUnavailable) {
				e.logger.Debug("Platform not available, skipping", "platform", platform.Name(), "reason", err)
				continue
			}
			return nil, &EnumerationError{Platform: platform.Name(), Err: err}
		}

		e.logger.Debug("Platform enumerated", "platform", platform.Name(), "candidates", len(candidates))

		for _, candidate := range candidates {
			device, ok := e.probeDevice(platform, candidate)
			if !ok {
				continue
			}
			devices = append(devices, device)
		}
	}

	e.logger.Debug("Enumeration finished", "devices", len(devices))
	return devices, nil
}

// probeDevice returns the capability of one candidate, or false when the
// device failed to probe or supports nothing.
func (e *Enumerator) probeDevice(platform Platform, candidate Candidate) (DeviceCapability, bool) {
	logger := e.logger.With("platform", platform.Name(), "device", candidate.ID())

	prober, err := platform.Open(candidate)
	if err != nil {
		logger.Warn("Skipping device", "error", &ProbeError{Device: candidate.ID(), Err: err})
		return DeviceCapability{}, false
	}
	defer func() {
		if closeErr := prober.Close(); closeErr != nil {
			logger.Debug("Failed to close device", "error", closeErr)
		}
	}()

	device := DeviceCapability{
		Driver:  candidate.Driver,
		Ordinal: candidate.Ordinal,
		Path:    candidate.Path,
		Name:    candidate.Name,
	}
	if name := prober.Name(); name != "" {
		device.Name = name
	}

	for _, codec := range e.codecs {
		support, probeErr := prober.Probe(codec)
		if probeErr != nil {
			logger.Warn("Skipping device", "error", &ProbeError{Device: candidate.ID(), Codec: codec, Err: probeErr})
			return DeviceCapability{}, false
		}
		if support.IsEmpty() {
			continue
		}
		support.Codec = codec
		device.Codecs = append(device.Codecs, support)
	}

	if len(device.Codecs) == 0 {
		logger.Debug("Device has no codec acceleration, excluding")
		return DeviceCapability{}, false
	}

	logger.Debug("Device probed", "name", device.Name, "codecs", len(device.Codecs))
	return device, true
}
