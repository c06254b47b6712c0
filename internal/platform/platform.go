// Package platform assembles the driver stacks a scan walks.
package platform

import (
	"errors"
	"fmt"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/platform/nvidia"
	"github.com/smazurov/hwscan/internal/platform/simulated"
	"github.com/smazurov/hwscan/internal/platform/v4l2m2m"
	"github.com/smazurov/hwscan/internal/platform/vaapi"
)

// ErrUnknownDriver is returned for a driver name that has no platform.
var ErrUnknownDriver = errors.New("unknown driver")

// DefaultDrivers is the platform order when none is configured.
var DefaultDrivers = []string{"vaapi", "nvidia", "v4l2m2m"}

// Config selects platforms.
type Config struct {
	// Drivers are visited in order. Empty means DefaultDrivers.
	Drivers []string
	// Simulate replaces every real platform with a fixture file.
	Simulate string
	// DRIDir overrides the VA-API render node directory.
	DRIDir string
}

// New builds the platform list for cfg.
func New(cfg Config) ([]hwscan.Platform, error) {
	if cfg.Simulate != "" {
		fixture, err := simulated.LoadFixture(cfg.Simulate)
		if err != nil {
			return nil, err
		}
		return []hwscan.Platform{simulated.New(fixture)}, nil
	}

	names := cfg.Drivers
	if len(names) == 0 {
		names = DefaultDrivers
	}

	platforms := make([]hwscan.Platform, 0, len(names))
	seen := make(map[hwscan.Driver]bool, len(names))
	for _, name := range names {
		driver, err := hwscan.ParseDriver(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
		}
		if seen[driver] {
			continue
		}
		seen[driver] = true

		switch driver {
		case hwscan.DriverVAAPI:
			var opts []vaapi.Option
			if cfg.DRIDir != "" {
				opts = append(opts, vaapi.WithDRIDir(cfg.DRIDir))
			}
			platforms = append(platforms, vaapi.New(opts...))
		case hwscan.DriverNVIDIA:
			platforms = append(platforms, nvidia.New())
		case hwscan.DriverV4L2M2M:
			platforms = append(platforms, v4l2m2m.New())
		default:
			// simulated needs a fixture
			return nil, fmt.Errorf("%w: %q requires a simulation fixture", ErrUnknownDriver, name)
		}
	}
	return platforms, nil
}

// IsConfigError reports whether err comes from invalid platform
// configuration rather than from the host.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownDriver) || errors.Is(err, simulated.ErrInvalidFixture)
}

// NewEnumerator builds the platforms for cfg and an enumerator restricted
// to the named codecs. Every error it returns is a configuration error.
func NewEnumerator(cfg Config, codecs []string, opts ...hwscan.Option) (*hwscan.Enumerator, error) {
	platforms, err := New(cfg)
	if err != nil {
		return nil, err
	}
	filter, err := hwscan.ParseCodecs(codecs)
	if err != nil {
		return nil, err
	}
	opts = append([]hwscan.Option{hwscan.WithCodecs(filter)}, opts...)
	return hwscan.NewEnumerator(platforms, opts...), nil
}
