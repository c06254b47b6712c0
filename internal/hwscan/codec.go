package hwscan

import (
	"fmt"
	"strings"
)

// Codec identifies a video coding format.
type Codec uint32

// Codecs in the fixed enumeration.
const (
	CodecMPEG1 Codec = 1
	CodecMPEG2 Codec = 2
	CodecMPEG4 Codec = 4
	CodecVC1   Codec = 7
	CodecVP8   Codec = 8
	CodecVP9   Codec = 9
	CodecAV1   Codec = 10
	CodecH264  Codec = 264
	CodecHEVC  Codec = 265
)

var allCodecs = []Codec{
	CodecMPEG1,
	CodecMPEG2,
	CodecMPEG4,
	CodecVC1,
	CodecH264,
	CodecHEVC,
	CodecVP8,
	CodecVP9,
	CodecAV1,
}

// AllCodecs returns the fixed codec enumeration in probe order.
func AllCodecs() []Codec {
	out := make([]Codec, len(allCodecs))
	copy(out, allCodecs)
	return out
}

// Valid reports whether c is part of the fixed enumeration.
func (c Codec) Valid() bool {
	for _, known := range allCodecs {
		if c == known {
			return true
		}
	}
	return false
}

func (c Codec) String() string {
	switch c {
	case CodecMPEG1:
		return "mpeg1"
	case CodecMPEG2:
		return "mpeg2"
	case CodecMPEG4:
		return "mpeg4"
	case CodecVC1:
		return "vc1"
	case CodecVP8:
		return "vp8"
	case CodecVP9:
		return "vp9"
	case CodecAV1:
		return "av1"
	case CodecH264:
		return "h264"
	case CodecHEVC:
		return "hevc"
	default:
		return fmt.Sprintf("codec(%d)", uint32(c))
	}
}

// MarshalText encodes the codec by name for JSON and TOML documents.
func (c Codec) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown codec %d", uint32(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts any name ParseCodec understands.
func (c *Codec) UnmarshalText(text []byte) error {
	parsed, err := ParseCodec(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCodec resolves a codec name. Common aliases are accepted.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mpeg1", "mpeg-1", "mpeg1video":
		return CodecMPEG1, nil
	case "mpeg2", "mpeg-2", "mpeg2video":
		return CodecMPEG2, nil
	case "mpeg4", "mpeg-4", "mpeg4part2":
		return CodecMPEG4, nil
	case "vc1", "vc-1", "wmv3":
		return CodecVC1, nil
	case "vp8":
		return CodecVP8, nil
	case "vp9":
		return CodecVP9, nil
	case "av1":
		return CodecAV1, nil
	case "h264", "h.264", "avc":
		return CodecH264, nil
	case "hevc", "h265", "h.265":
		return CodecHEVC, nil
	default:
		return 0, fmt.Errorf("unknown codec %q", name)
	}
}

// ParseCodecs parses a list of codec names, rejecting duplicates.
func ParseCodecs(names []string) ([]Codec, error) {
	codecs := make([]Codec, 0, len(names))
	seen := make(map[Codec]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		codec, err := ParseCodec(name)
		if err != nil {
			return nil, err
		}
		if seen[codec] {
			return nil, fmt.Errorf("codec %s listed twice", codec)
		}
		seen[codec] = true
		codecs = append(codecs, codec)
	}
	return codecs, nil
}
