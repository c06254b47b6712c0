package v4l2

// FourCC packs four characters into a V4L2 pixel format code.
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	return string([]byte{
		byte(format),
		byte(format >> 8),
		byte(format >> 16),
		byte(format >> 24),
	})
}

// Compressed pixel formats (videodev2.h). The *Slice and *Frame variants
// are used by stateless decoders driven through the request API.
const (
	PixFmtMJPEG      = uint32('M') | uint32('J')<<8 | uint32('P')<<16 | uint32('G')<<24
	PixFmtH264       = uint32('H') | uint32('2')<<8 | uint32('6')<<16 | uint32('4')<<24
	PixFmtH264NoSC   = uint32('A') | uint32('V')<<8 | uint32('C')<<16 | uint32('1')<<24
	PixFmtH264Slice  = uint32('S') | uint32('2')<<8 | uint32('6')<<16 | uint32('4')<<24
	PixFmtHEVC       = uint32('H') | uint32('E')<<8 | uint32('V')<<16 | uint32('C')<<24
	PixFmtHEVCSlice  = uint32('S') | uint32('2')<<8 | uint32('6')<<16 | uint32('5')<<24
	PixFmtMPEG1      = uint32('M') | uint32('P')<<8 | uint32('G')<<16 | uint32('1')<<24
	PixFmtMPEG2      = uint32('M') | uint32('P')<<8 | uint32('G')<<16 | uint32('2')<<24
	PixFmtMPEG2Slice = uint32('M') | uint32('G')<<8 | uint32('2')<<16 | uint32('S')<<24
	PixFmtMPEG4      = uint32('M') | uint32('P')<<8 | uint32('G')<<16 | uint32('4')<<24
	PixFmtVC1AnnexG  = uint32('V') | uint32('C')<<8 | uint32('1')<<16 | uint32('G')<<24
	PixFmtVC1AnnexL  = uint32('V') | uint32('C')<<8 | uint32('1')<<16 | uint32('L')<<24
	PixFmtVP8        = uint32('V') | uint32('P')<<8 | uint32('8')<<16 | uint32('0')<<24
	PixFmtVP8Frame   = uint32('V') | uint32('P')<<8 | uint32('8')<<16 | uint32('F')<<24
	PixFmtVP9        = uint32('V') | uint32('P')<<8 | uint32('9')<<16 | uint32('0')<<24
	PixFmtVP9Frame   = uint32('V') | uint32('P')<<8 | uint32('9')<<16 | uint32('F')<<24
	PixFmtAV1Frame   = uint32('A') | uint32('V')<<8 | uint32('1')<<16 | uint32('F')<<24
)

// Raw formats seen on the uncompressed side of codec nodes.
const (
	PixFmtNV12    = uint32('N') | uint32('V')<<8 | uint32('1')<<16 | uint32('2')<<24
	PixFmtNV12M   = uint32('N') | uint32('M')<<8 | uint32('1')<<16 | uint32('2')<<24
	PixFmtP010    = uint32('P') | uint32('0')<<8 | uint32('1')<<16 | uint32('0')<<24
	PixFmtYUV420  = uint32('Y') | uint32('U')<<8 | uint32('1')<<16 | uint32('2')<<24
	PixFmtYUYV    = uint32('Y') | uint32('U')<<8 | uint32('Y')<<16 | uint32('V')<<24
	PixFmtNV16    = uint32('N') | uint32('V')<<8 | uint32('1')<<16 | uint32('6')<<24
	PixFmtYUV444M = uint32('Y') | uint32('M')<<8 | uint32('2')<<16 | uint32('4')<<24
)
