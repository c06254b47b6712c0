package v4l2

import "errors"

// ErrNotSupported is returned on platforms without V4L2.
var ErrNotSupported = errors.New("v4l2: not supported on this platform")

// BufType is a V4L2 buffer (queue) type.
type BufType uint32

// Buffer types used by codec nodes.
const (
	BufTypeVideoCapture       BufType = 1
	BufTypeVideoOutput        BufType = 2
	BufTypeVideoCaptureMPlane BufType = 9
	BufTypeVideoOutputMPlane  BufType = 10
)

func (b BufType) String() string {
	switch b {
	case BufTypeVideoCapture:
		return "capture"
	case BufTypeVideoOutput:
		return "output"
	case BufTypeVideoCaptureMPlane:
		return "capture-mplane"
	case BufTypeVideoOutputMPlane:
		return "output-mplane"
	default:
		return "unknown"
	}
}

// Device capability flags (struct v4l2_capability).
const (
	CapVideoCapture       uint32 = 0x00000001
	CapVideoOutput        uint32 = 0x00000002
	CapVideoCaptureMPlane uint32 = 0x00001000
	CapVideoOutputMPlane  uint32 = 0x00002000
	CapVideoM2MMPlane     uint32 = 0x00004000
	CapVideoM2M           uint32 = 0x00008000
	CapStreaming          uint32 = 0x04000000
	CapDeviceCaps         uint32 = 0x80000000
)

// FmtFlagCompressed marks a bitstream format in struct v4l2_fmtdesc.
const FmtFlagCompressed uint32 = 0x0001

// DeviceInfo describes one video4linux node.
type DeviceInfo struct {
	Path    string
	Index   int // N of /dev/videoN, -1 for nodes named otherwise
	Card    string
	Driver  string
	BusInfo string
	// Caps are the node's own capabilities (device_caps when the driver
	// reports them, capabilities otherwise).
	Caps uint32
}

// IsM2M reports whether the node is a memory-to-memory device.
func (d DeviceInfo) IsM2M() bool {
	return d.Caps&(CapVideoM2M|CapVideoM2MMPlane) != 0
}

// IsMPlane reports whether the node uses the multi-planar API.
func (d DeviceInfo) IsMPlane() bool {
	return d.Caps&CapVideoM2MMPlane != 0
}

// FormatInfo is one entry of VIDIOC_ENUM_FMT.
type FormatInfo struct {
	PixelFormat uint32
	Description string
	Flags       uint32
}

// Compressed reports whether the format is a bitstream format.
func (f FormatInfo) Compressed() bool {
	return f.Flags&FmtFlagCompressed != 0
}

// FrameSizeRange is the largest frame size a format supports. Zero values
// mean the driver did not report sizes.
type FrameSizeRange struct {
	MinWidth  uint32
	MinHeight uint32
	MaxWidth  uint32
	MaxHeight uint32
}

// Known reports whether any size was reported.
func (r FrameSizeRange) Known() bool {
	return r.MaxWidth > 0 && r.MaxHeight > 0
}

// Frame size enumeration types.
const (
	frmsizeTypeDiscrete   = 1
	frmsizeTypeContinuous = 2
	frmsizeTypeStepwise   = 3
)

// merge widens r to include a discrete size.
func (r FrameSizeRange) merge(minW, minH, maxW, maxH uint32) FrameSizeRange {
	if r.MinWidth == 0 || minW < r.MinWidth {
		r.MinWidth = minW
	}
	if r.MinHeight == 0 || minH < r.MinHeight {
		r.MinHeight = minH
	}
	if maxW > r.MaxWidth {
		r.MaxWidth = maxW
	}
	if maxH > r.MaxHeight {
		r.MaxHeight = maxH
	}
	return r
}
