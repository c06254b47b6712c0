//go:build !linux

package v4l2

// FindDevices returns ErrNotSupported.
func FindDevices() ([]DeviceInfo, error) {
	return nil, ErrNotSupported
}

// Device is an open video node.
type Device struct{}

// Open returns ErrNotSupported.
func Open(string) (*Device, error) {
	return nil, ErrNotSupported
}

func (d *Device) Info() DeviceInfo { return DeviceInfo{} }

func (d *Device) Queues() (output, capture BufType) {
	return BufTypeVideoOutput, BufTypeVideoCapture
}

func (d *Device) Formats(BufType) ([]FormatInfo, error) { return nil, ErrNotSupported }

func (d *Device) FrameSizes(uint32) (FrameSizeRange, error) {
	return FrameSizeRange{}, ErrNotSupported
}

func (d *Device) Close() error { return nil }
