package nvidia

import (
	"encoding/binary"
	"fmt"

	"github.com/smazurov/hwscan/internal/hwscan"
)

// cudaVideoCodec mirrors cudaVideoCodec from cuviddec.h.
type cudaVideoCodec uint32

const (
	cudaCodecMPEG1 cudaVideoCodec = 0
	cudaCodecMPEG2 cudaVideoCodec = 1
	cudaCodecMPEG4 cudaVideoCodec = 2
	cudaCodecVC1   cudaVideoCodec = 3
	cudaCodecH264  cudaVideoCodec = 4
	cudaCodecHEVC  cudaVideoCodec = 8
	cudaCodecVP8   cudaVideoCodec = 9
	cudaCodecVP9   cudaVideoCodec = 10
	cudaCodecAV1   cudaVideoCodec = 11
)

var decodeCodecs = map[hwscan.Codec]cudaVideoCodec{
	hwscan.CodecMPEG1: cudaCodecMPEG1,
	hwscan.CodecMPEG2: cudaCodecMPEG2,
	hwscan.CodecMPEG4: cudaCodecMPEG4,
	hwscan.CodecVC1:   cudaCodecVC1,
	hwscan.CodecH264:  cudaCodecH264,
	hwscan.CodecHEVC:  cudaCodecHEVC,
	hwscan.CodecVP8:   cudaCodecVP8,
	hwscan.CodecVP9:   cudaCodecVP9,
	hwscan.CodecAV1:   cudaCodecAV1,
}

// cudaVideoChromaFormat values.
func chromaFormat(c hwscan.Chroma) uint32 {
	switch c {
	case hwscan.ChromaMonochrome:
		return 0
	case hwscan.ChromaYUV422:
		return 2
	case hwscan.ChromaYUV444:
		return 3
	default:
		return 1
	}
}

// decodeQueries is every surface format asked of cuvidGetDecoderCaps, in
// the order specs are reported.
var decodeQueries = func() []decodeQuery {
	var out []decodeQuery
	for _, chroma := range []hwscan.Chroma{hwscan.ChromaYUV420, hwscan.ChromaYUV422, hwscan.ChromaYUV444} {
		for _, depth := range []hwscan.ColorDepth{hwscan.Bit8, hwscan.Bit10, hwscan.Bit12} {
			out = append(out, decodeQuery{chroma: chroma, depth: depth})
		}
	}
	return out
}()

// guid is the Windows GUID layout NVENC uses.
type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g guid) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%x-%x", g.Data1, g.Data2, g.Data3, g.Data4[:2], g.Data4[2:])
}

// words returns the GUID as the two eightbytes it occupies in registers
// when passed by value.
func (g guid) words() (uint64, uint64) {
	var b [16]byte
	binary.NativeEndian.PutUint32(b[0:], g.Data1)
	binary.NativeEndian.PutUint16(b[4:], g.Data2)
	binary.NativeEndian.PutUint16(b[6:], g.Data3)
	copy(b[8:], g.Data4[:])
	return binary.NativeEndian.Uint64(b[0:]), binary.NativeEndian.Uint64(b[8:])
}

var (
	guidCodecH264 = guid{0x6bc82762, 0x4e63, 0x4ca4, [8]byte{0xaa, 0x85, 0x1e, 0x50, 0xf3, 0x21, 0xf6, 0xbf}}
	guidCodecHEVC = guid{0x790cdc88, 0x4522, 0x4d7b, [8]byte{0x94, 0x25, 0xbd, 0xa9, 0x97, 0x5f, 0x76, 0x03}}
	guidCodecAV1  = guid{0x0a352289, 0x0aa7, 0x4759, [8]byte{0x86, 0x2d, 0x5d, 0x15, 0xcd, 0x16, 0xd2, 0x54}}

	guidH264Baseline = guid{0x0727bcaa, 0x78c4, 0x4c83, [8]byte{0x8c, 0x2f, 0xef, 0x3d, 0xff, 0x26, 0x7c, 0x6a}}
	guidH264Main     = guid{0x60b5c1d4, 0x67fe, 0x4790, [8]byte{0x94, 0xd5, 0xc4, 0x72, 0x6d, 0x7b, 0x6e, 0x6d}}
	guidH264High     = guid{0xe7cbc309, 0x4f7a, 0x4b89, [8]byte{0xaf, 0x2a, 0xd5, 0x37, 0xc9, 0x2b, 0xe3, 0x10}}
	guidH264High444  = guid{0x7ac663cb, 0xa598, 0x4960, [8]byte{0xb8, 0x44, 0x33, 0x9b, 0x26, 0x1a, 0x7d, 0x52}}
	guidHEVCMain     = guid{0xb514c39a, 0xb55b, 0x40fa, [8]byte{0x87, 0x8f, 0xf1, 0x25, 0x3b, 0x4d, 0xfd, 0xec}}
	guidHEVCMain10   = guid{0xfa4d2b6c, 0x3a5b, 0x411a, [8]byte{0x80, 0x18, 0x0a, 0x3f, 0x5e, 0x3c, 0x9b, 0xe5}}
	guidHEVCFRExt    = guid{0x51ec32b5, 0x1b4c, 0x453c, [8]byte{0x99, 0x27, 0x2c, 0x16, 0x7c, 0x8b, 0x96, 0x64}}
	guidAV1Main      = guid{0x5f2a39f5, 0xf14e, 0x4f95, [8]byte{0x9a, 0x9e, 0xb7, 0x6d, 0x56, 0x8f, 0xcf, 0x97}}
)

var encodeCodecs = map[hwscan.Codec]guid{
	hwscan.CodecH264: guidCodecH264,
	hwscan.CodecHEVC: guidCodecHEVC,
	hwscan.CodecAV1:  guidCodecAV1,
}

// encodeVariant is what an NVENC profile GUID stands for. requires names
// the capability that must be non-zero for the variant to be reported,
// capNone when the profile implies nothing extra.
type encodeVariant struct {
	profile  hwscan.EncodeProfile
	chroma   hwscan.Chroma
	depth    hwscan.ColorDepth
	requires capability
}

var encodeProfiles = map[guid][]encodeVariant{
	guidH264Baseline: {{hwscan.ProfileBaseline, hwscan.ChromaYUV420, hwscan.Bit8, capNone}},
	guidH264Main:     {{hwscan.ProfileMain, hwscan.ChromaYUV420, hwscan.Bit8, capNone}},
	guidH264High:     {{hwscan.ProfileHigh, hwscan.ChromaYUV420, hwscan.Bit8, capNone}},
	guidH264High444:  {{hwscan.ProfileHigh444, hwscan.ChromaYUV444, hwscan.Bit8, capSupportYUV444Encode}},
	guidHEVCMain:     {{hwscan.ProfileMain, hwscan.ChromaYUV420, hwscan.Bit8, capNone}},
	guidHEVCMain10:   {{hwscan.ProfileMain10, hwscan.ChromaYUV420, hwscan.Bit10, capSupport10BitEncode}},
	guidHEVCFRExt: {
		{hwscan.ProfileUnknown, hwscan.ChromaYUV444, hwscan.Bit8, capSupportYUV444Encode},
		{hwscan.ProfileUnknown, hwscan.ChromaYUV444, hwscan.Bit10, capSupport10BitEncode},
	},
	guidAV1Main: {
		{hwscan.ProfileMain, hwscan.ChromaYUV420, hwscan.Bit8, capNone},
		{hwscan.ProfileMain10, hwscan.ChromaYUV420, hwscan.Bit10, capSupport10BitEncode},
	},
}

// capability mirrors NV_ENC_CAPS.
type capability int32

const (
	capNone                capability = -1
	capNumMaxBFrames       capability = 0
	capWidthMax            capability = 16
	capHeightMax           capability = 17
	capSupportYUV444Encode capability = 33
	capSupport10BitEncode  capability = 39
)
