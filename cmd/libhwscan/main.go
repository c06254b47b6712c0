// Command libhwscan builds the hwscan shared library:
//
//	go build -buildmode=c-shared -o libhwscan.so ./cmd/libhwscan
//
// It exports scan_devices and free_devices. Configuration is read from the
// HWSCAN_* environment on every call.
package main

import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/smazurov/hwscan/internal/abi"
	"github.com/smazurov/hwscan/internal/config"
	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/smazurov/hwscan/internal/platform"
)

var initLogging sync.Once

//export scan_devices
func scan_devices(out *unsafe.Pointer) C.int {
	return C.int(abi.Scan(out, enumerate, abi.CAllocator{}))
}

//export free_devices
func free_devices(p unsafe.Pointer) {
	abi.Free(p, abi.CAllocator{})
}

func enumerate() ([]hwscan.DeviceCapability, error) {
	opts, err := config.LoadScanOptions()
	setupLogging(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", abi.ErrConfig, err)
	}

	enum, err := platform.NewEnumerator(platform.Config{
		Drivers:  opts.Drivers,
		Simulate: opts.Simulate,
	}, opts.Codecs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", abi.ErrConfig, err)
	}
	return enum.Enumerate()
}

// setupLogging runs once per process. Later calls keep the first
// configuration even if the environment changes.
func setupLogging(opts config.ScanOptions) {
	initLogging.Do(func() {
		cfg := config.LoadLoggingConfig(opts.Config)
		if opts.LoggingLevel != "" {
			cfg.Level = opts.LoggingLevel
		}
		if opts.LoggingFormat != "" {
			cfg.Format = opts.LoggingFormat
		}
		cfg.Output = logging.OutputStderr
		logging.Initialize(cfg)
	})
}

func main() {}
