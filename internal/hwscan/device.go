package hwscan

import "fmt"

// CodecSupport is what one device can do with one codec.
type CodecSupport struct {
	Codec    Codec          `json:"codec" toml:"codec"`
	Decode   bool           `json:"decode" toml:"decode"`
	Encode   bool           `json:"encode" toml:"encode"`
	Decoding []DecodingSpec `json:"decoding,omitempty" toml:"decoding,omitempty"`
	Encoding []EncodingSpec `json:"encoding,omitempty" toml:"encoding,omitempty"`
}

// IsEmpty reports whether the codec is neither decodable nor encodable.
// Empty entries are never stored on a device.
func (s CodecSupport) IsEmpty() bool {
	return !s.Decode && !s.Encode
}

// DeviceCapability is one accelerator and the codecs it supports.
type DeviceCapability struct {
	Driver  Driver         `json:"driver" toml:"driver"`
	Ordinal uint32         `json:"ordinal" toml:"ordinal"`
	Path    string         `json:"path,omitempty" toml:"path,omitempty"`
	Name    string         `json:"name" toml:"name"`
	Codecs  []CodecSupport `json:"codecs" toml:"codecs"`
}

// ID returns the identifier callers use to select this device later.
func (d DeviceCapability) ID() string {
	if d.Path != "" {
		return fmt.Sprintf("%s:%s", d.Driver, d.Path)
	}
	return fmt.Sprintf("%s:%d", d.Driver, d.Ordinal)
}

// Support returns the entry for codec, if the device supports it.
func (d DeviceCapability) Support(codec Codec) (CodecSupport, bool) {
	for _, s := range d.Codecs {
		if s.Codec == codec {
			return s, true
		}
	}
	return CodecSupport{}, false
}

// CanDecode reports hardware decode support for codec.
func (d DeviceCapability) CanDecode(codec Codec) bool {
	s, ok := d.Support(codec)
	return ok && s.Decode
}

// CanEncode reports hardware encode support for codec.
func (d DeviceCapability) CanEncode(codec Codec) bool {
	s, ok := d.Support(codec)
	return ok && s.Encode
}
