//go:build linux

package v4l2

import "unsafe"

// Compile-time struct size assertions.
// These structs hold no pointers or longs, so the sizes match on every
// Linux architecture.
var (
	_ [104]byte = [unsafe.Sizeof(v4l2Capability{})]byte{}
	_ [64]byte  = [unsafe.Sizeof(v4l2Fmtdesc{})]byte{}
	_ [24]byte  = [unsafe.Sizeof(v4l2FrmsizeStepwise{})]byte{}
	_ [44]byte  = [unsafe.Sizeof(v4l2Frmsizeenum{})]byte{}
)

// IOCTL request codes.
const (
	vidiocQuerycap       = 0x80685600 // _IOR('V', 0, struct v4l2_capability)
	vidiocEnumFmt        = 0xc0405602 // _IOWR('V', 2, struct v4l2_fmtdesc)
	vidiocEnumFramesizes = 0xc02c564a // _IOWR('V', 74, struct v4l2_frmsizeenum)
)

// v4l2Capability has size 104 bytes.
type v4l2Capability struct {
	driver       [16]byte
	card         [32]byte
	busInfo      [32]byte
	version      uint32
	capabilities uint32
	deviceCaps   uint32
	reserved     [3]uint32
}

// v4l2Fmtdesc has size 64 bytes.
type v4l2Fmtdesc struct {
	index       uint32
	typ         uint32
	flags       uint32
	description [32]byte
	pixelformat uint32
	mbusCode    uint32
	reserved    [3]uint32
}

type v4l2FrmsizeDiscrete struct {
	width  uint32
	height uint32
}

type v4l2FrmsizeStepwise struct {
	minWidth   uint32
	maxWidth   uint32
	stepWidth  uint32
	minHeight  uint32
	maxHeight  uint32
	stepHeight uint32
}

// v4l2Frmsizeenum has size 44 bytes. union holds either a discrete or a
// stepwise size depending on typ.
type v4l2Frmsizeenum struct {
	index       uint32
	pixelFormat uint32
	typ         uint32
	union       [24]byte
	reserved    [2]uint32
}

func (f *v4l2Frmsizeenum) discrete() *v4l2FrmsizeDiscrete {
	return (*v4l2FrmsizeDiscrete)(unsafe.Pointer(&f.union[0]))
}

func (f *v4l2Frmsizeenum) stepwise() *v4l2FrmsizeStepwise {
	return (*v4l2FrmsizeStepwise)(unsafe.Pointer(&f.union[0]))
}

// effectiveCaps returns device_caps when the driver fills it.
func (c *v4l2Capability) effectiveCaps() uint32 {
	if c.capabilities&CapDeviceCaps != 0 {
		return c.deviceCaps
	}
	return c.capabilities
}
