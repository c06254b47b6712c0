// Package hwscan models hardware codec capabilities and enumerates the
// devices that provide them.
//
// Numeric values of the enumerations below are written verbatim into the
// exported scan result layout. They must never be renumbered.
package hwscan

import (
	"fmt"
	"strings"
)

// Driver identifies the driver stack a device was discovered through.
type Driver uint32

// Driver stacks.
const (
	DriverVAAPI     Driver = 0
	DriverNVIDIA    Driver = 1
	DriverV4L2M2M   Driver = 2
	DriverSimulated Driver = 255
)

// String returns the short driver name used in device IDs and config.
func (d Driver) String() string {
	switch d {
	case DriverVAAPI:
		return "vaapi"
	case DriverNVIDIA:
		return "nvidia"
	case DriverV4L2M2M:
		return "v4l2m2m"
	case DriverSimulated:
		return "simulated"
	default:
		return fmt.Sprintf("driver(%d)", uint32(d))
	}
}

// ParseDriver resolves a driver name as used in configuration.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vaapi", "va-api":
		return DriverVAAPI, nil
	case "nvidia", "nvdec", "nvenc", "cuda":
		return DriverNVIDIA, nil
	case "v4l2m2m", "v4l2", "v4l2-m2m":
		return DriverV4L2M2M, nil
	case "simulated":
		return DriverSimulated, nil
	default:
		return 0, fmt.Errorf("unknown driver %q", name)
	}
}

// MarshalText encodes the driver by name.
func (d Driver) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a driver name.
func (d *Driver) UnmarshalText(text []byte) error {
	parsed, err := ParseDriver(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Chroma is a chroma subsampling format.
type Chroma uint32

// Chroma formats.
const (
	ChromaMonochrome Chroma = 0
	ChromaYUV420     Chroma = 420
	ChromaYUV422     Chroma = 422
	ChromaYUV444     Chroma = 444
)

func (c Chroma) String() string {
	switch c {
	case ChromaMonochrome:
		return "monochrome"
	case ChromaYUV420:
		return "yuv420"
	case ChromaYUV422:
		return "yuv422"
	case ChromaYUV444:
		return "yuv444"
	default:
		return fmt.Sprintf("chroma(%d)", uint32(c))
	}
}

// ColorDepth is the bit depth per component.
type ColorDepth uint32

// Color depths.
const (
	Bit8  ColorDepth = 8
	Bit10 ColorDepth = 10
	Bit12 ColorDepth = 12
)

func (d ColorDepth) String() string {
	return fmt.Sprintf("%dbit", uint32(d))
}

// EncodeProfile is a codec profile an encoder can produce.
type EncodeProfile uint32

// Encode profiles. ProfileUnknown is used when the platform cannot report one.
const (
	ProfileUnknown  EncodeProfile = 0
	ProfileBaseline EncodeProfile = 1
	ProfileMain     EncodeProfile = 10
	ProfileMain10   EncodeProfile = 11
	ProfileHigh     EncodeProfile = 100
	ProfileHigh10   EncodeProfile = 110
	ProfileHigh12   EncodeProfile = 112
	ProfileHigh444  EncodeProfile = 140
)

func (p EncodeProfile) String() string {
	switch p {
	case ProfileUnknown:
		return "unknown"
	case ProfileBaseline:
		return "baseline"
	case ProfileMain:
		return "main"
	case ProfileMain10:
		return "main10"
	case ProfileHigh:
		return "high"
	case ProfileHigh10:
		return "high10"
	case ProfileHigh12:
		return "high12"
	case ProfileHigh444:
		return "high444"
	default:
		return fmt.Sprintf("profile(%d)", uint32(p))
	}
}

// ThreeValue is a boolean that may be unknown.
type ThreeValue uint32

// ThreeValue states.
const (
	False   ThreeValue = 0
	True    ThreeValue = 1
	Unknown ThreeValue = 2
)

// ThreeValueOf converts a known boolean.
func ThreeValueOf(b bool) ThreeValue {
	if b {
		return True
	}
	return False
}

func (v ThreeValue) String() string {
	switch v {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "unknown"
	}
}

// DecodingSpec describes one decodable input variant.
type DecodingSpec struct {
	Chroma     Chroma     `json:"chroma" toml:"chroma"`
	ColorDepth ColorDepth `json:"color_depth" toml:"color_depth"`
	MaxWidth   uint32     `json:"max_width" toml:"max_width"`
	MaxHeight  uint32     `json:"max_height" toml:"max_height"`
}

// EncodingSpec describes one encodable output variant.
type EncodingSpec struct {
	Chroma     Chroma        `json:"chroma" toml:"chroma"`
	ColorDepth ColorDepth    `json:"color_depth" toml:"color_depth"`
	Profile    EncodeProfile `json:"profile" toml:"profile"`
	MaxWidth   uint32        `json:"max_width" toml:"max_width"`
	MaxHeight  uint32        `json:"max_height" toml:"max_height"`
	BFrames    ThreeValue    `json:"b_frames" toml:"b_frames"`
}
