package hwscan

// Candidate is a device a platform found but has not probed yet.
type Candidate struct {
	Driver  Driver
	Ordinal uint32
	Path    string
	Name    string
}

// ID returns the selector string for the candidate, matching DeviceCapability.ID.
func (c Candidate) ID() string {
	return DeviceCapability{Driver: c.Driver, Ordinal: c.Ordinal, Path: c.Path}.ID()
}

// Platform abstracts one driver stack (VA-API, NVIDIA, V4L2 mem2mem, ...).
//
//go:generate mockgen -destination=mocks/mock_platform.go -package=mocks . Platform,Prober
type Platform interface {
	// Name returns a short identifier used in logs and errors.
	Name() string

	// Enumerate lists candidate devices in a deterministic order.
	// It returns ErrPlatformUnavailable when the stack is absent from the host;
	// any other error aborts the whole scan.
	Enumerate() ([]Candidate, error)

	// Open prepares a candidate for capability probing.
	Open(c Candidate) (Prober, error)
}

// Prober queries codec support on one opened device.
type Prober interface {
	// Name returns a refined device name, or "" to keep the candidate's.
	Name() string

	// Probe reports support for one codec. A codec the device cannot handle
	// is returned as an empty CodecSupport, not as an error.
	Probe(codec Codec) (CodecSupport, error)

	// Close releases the device.
	Close() error
}
