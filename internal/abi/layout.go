// Package abi lays scan results out in one contiguous native allocation
// and implements the scan/free entry points the shared library exports.
//
// Layout version 1, native byte order, all pointers absolute:
//
//	Header        32 bytes  magic, version, num_devices, reserved, devices, total_size
//	DeviceRecord  48 bytes  driver, ordinal, path, name, codecs, num_codecs, reserved
//	CodecRecord   32 bytes  codec, flags, decoding, encoding, num_decoding, num_encoding
//	DecodingSpec  16 bytes  chroma, color_depth, max_width, max_height
//	EncodingSpec  24 bytes  chroma, color_depth, profile, max_width, max_height, b_frames
//
// The arena holds the header, then every device record, then per device
// its codec records followed by each codec's spec arrays, then all strings
// NUL-terminated and padded to 8 bytes. A pointer to an empty array or an
// absent string is 0.
package abi

// Magic is "HWSC" read as a little-endian u32.
const Magic uint32 = 0x43535748

// Version is bumped on any layout change.
const Version uint32 = 1

// Record sizes.
const (
	HeaderSize       = 32
	DeviceRecordSize = 48
	CodecRecordSize  = 32
	DecodingSpecSize = 16
	EncodingSpecSize = 24
)

// Header field offsets.
const (
	offMagic      = 0
	offVersion    = 4
	offNumDevices = 8
	offDevices    = 16
	offTotalSize  = 24
)

// DeviceRecord field offsets.
const (
	offDeviceDriver    = 0
	offDeviceOrdinal   = 4
	offDevicePath      = 8
	offDeviceName      = 16
	offDeviceCodecs    = 24
	offDeviceNumCodecs = 32
)

// CodecRecord field offsets.
const (
	offCodecID          = 0
	offCodecFlags       = 4
	offCodecDecoding    = 8
	offCodecEncoding    = 16
	offCodecNumDecoding = 24
	offCodecNumEncoding = 28
)

// CodecRecord flags.
const (
	FlagDecode uint32 = 1 << 0
	FlagEncode uint32 = 1 << 1
)

// stringAlign pads every string slot.
const stringAlign = 8

func alignUp(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}
