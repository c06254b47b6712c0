//go:build !linux

package nvidia

import (
	"fmt"

	"github.com/smazurov/hwscan/internal/hwscan"
)

type unsupportedDriver struct{}

func newDriver() driver { return unsupportedDriver{} }

func (unsupportedDriver) Init() error {
	return fmt.Errorf("%w: CUDA discovery requires linux", hwscan.ErrPlatformUnavailable)
}

func (unsupportedDriver) DeviceCount() (int, error) { return 0, nil }

func (unsupportedDriver) DeviceName(int) (string, error) { return "", nil }

func (unsupportedDriver) Open(int) (device, error) {
	return nil, hwscan.ErrPlatformUnavailable
}
