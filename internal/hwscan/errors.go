package hwscan

import (
	"errors"
	"fmt"
)

// ErrPlatformUnavailable is returned by Platform.Enumerate when the driver
// stack is not present on this host. The enumerator skips such platforms.
var ErrPlatformUnavailable = errors.New("platform not available")

// EnumerationError reports that a platform's device query itself failed.
// No partial result is produced when this happens.
type EnumerationError struct {
	Platform string
	Err      error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("%s: device enumeration failed: %v", e.Platform, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// ProbeError reports a capability probe failure on a single device.
// It is logged and the device is left out of the result.
type ProbeError struct {
	Device string
	Codec  Codec
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Codec == 0 {
		return fmt.Sprintf("%s: open failed: %v", e.Device, e.Err)
	}
	return fmt.Sprintf("%s: probing %s failed: %v", e.Device, e.Codec, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
