// Package simulated provides a platform described by a TOML fixture, for
// exercising the scanner on hosts without accelerators.
//
// A fixture looks like:
//
//	fail_enumerate = false
//
//	[[devices]]
//	name = "Simulated GPU"
//	path = "/dev/sim/gpu0"
//	ordinal = 0
//	fail_open = false
//	fail_probe = ""          # codec name whose probe errors
//
//	  [[devices.codecs]]
//	  codec = "h264"
//	  decode = true
//	  encode = true
//	  max_width = 4096
//	  max_height = 2304
package simulated

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
)

// ErrInvalidFixture is wrapped by every fixture load or validation error.
var ErrInvalidFixture = errors.New("invalid simulation fixture")

// errInjected is returned where the fixture asks for a failure.
var errInjected = errors.New("injected failure")

// Fixture is the parsed TOML document.
type Fixture struct {
	FailEnumerate bool     `toml:"fail_enumerate"`
	Devices       []Device `toml:"devices"`
}

// Device is one simulated accelerator.
type Device struct {
	Name      string  `toml:"name"`
	Path      string  `toml:"path"`
	Ordinal   uint32  `toml:"ordinal"`
	FailOpen  bool    `toml:"fail_open"`
	FailProbe string  `toml:"fail_probe"`
	Codecs    []Codec `toml:"codecs"`
}

// Codec is the support a simulated device reports for one codec.
type Codec struct {
	Codec     hwscan.Codec `toml:"codec"`
	Decode    bool         `toml:"decode"`
	Encode    bool         `toml:"encode"`
	MaxWidth  uint32       `toml:"max_width"`
	MaxHeight uint32       `toml:"max_height"`
	TenBit    bool         `toml:"ten_bit"`
}

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and validates fixture TOML.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	seen := make(map[string]bool, len(f.Devices))
	for i, d := range f.Devices {
		id := hwscan.Candidate{Driver: hwscan.DriverSimulated, Ordinal: d.Ordinal, Path: d.Path}.ID()
		if seen[id] {
			return fmt.Errorf("device %d: duplicate device %s", i, id)
		}
		seen[id] = true

		if d.FailProbe != "" {
			if _, err := hwscan.ParseCodec(d.FailProbe); err != nil {
				return fmt.Errorf("device %d: fail_probe: %w", i, err)
			}
		}
		codecs := make(map[hwscan.Codec]bool, len(d.Codecs))
		for _, c := range d.Codecs {
			if !c.Codec.Valid() {
				return fmt.Errorf("device %d: codec missing", i)
			}
			if codecs[c.Codec] {
				return fmt.Errorf("device %d: codec %s listed twice", i, c.Codec)
			}
			codecs[c.Codec] = true
		}
	}
	return nil
}

// Platform serves a fixture.
type Platform struct {
	fixture *Fixture
	logger  *slog.Logger
}

// New creates a platform over a parsed fixture.
func New(f *Fixture) *Platform {
	return &Platform{fixture: f, logger: logging.GetLogger("simulated")}
}

// Name implements hwscan.Platform.
func (p *Platform) Name() string { return "simulated" }

// Enumerate returns the fixture's devices in file order.
func (p *Platform) Enumerate() ([]hwscan.Candidate, error) {
	if p.fixture.FailEnumerate {
		return nil, fmt.Errorf("enumerate: %w", errInjected)
	}
	candidates := make([]hwscan.Candidate, 0, len(p.fixture.Devices))
	for _, d := range p.fixture.Devices {
		candidates = append(candidates, hwscan.Candidate{
			Driver:  hwscan.DriverSimulated,
			Ordinal: d.Ordinal,
			Path:    d.Path,
			Name:    d.Name,
		})
	}
	return candidates, nil
}

// Open finds the fixture device behind a candidate.
func (p *Platform) Open(c hwscan.Candidate) (hwscan.Prober, error) {
	for i := range p.fixture.Devices {
		d := &p.fixture.Devices[i]
		if d.Path != c.Path || d.Ordinal != c.Ordinal {
			continue
		}
		p.logger.Debug("Opening simulated device", "device", c.ID(), "codecs", len(d.Codecs))
		if d.FailOpen {
			return nil, fmt.Errorf("open %s: %w", c.ID(), errInjected)
		}
		failOn, _ := hwscan.ParseCodec(d.FailProbe)
		return &prober{device: d, failOn: failOn}, nil
	}
	return nil, fmt.Errorf("no simulated device %s", c.ID())
}

type prober struct {
	device *Device
	failOn hwscan.Codec
}

func (pr *prober) Name() string { return "" }

func (pr *prober) Close() error { return nil }

func (pr *prober) Probe(codec hwscan.Codec) (hwscan.CodecSupport, error) {
	if pr.failOn != 0 && codec == pr.failOn {
		return hwscan.CodecSupport{}, fmt.Errorf("probe %s: %w", codec, errInjected)
	}
	for _, c := range pr.device.Codecs {
		if c.Codec == codec {
			return c.support(), nil
		}
	}
	return hwscan.CodecSupport{}, nil
}

func (c Codec) support() hwscan.CodecSupport {
	s := hwscan.CodecSupport{Codec: c.Codec, Decode: c.Decode, Encode: c.Encode}
	depths := []hwscan.ColorDepth{hwscan.Bit8}
	if c.TenBit {
		depths = append(depths, hwscan.Bit10)
	}
	for _, depth := range depths {
		if c.Decode {
			s.Decoding = append(s.Decoding, hwscan.DecodingSpec{
				Chroma:     hwscan.ChromaYUV420,
				ColorDepth: depth,
				MaxWidth:   c.MaxWidth,
				MaxHeight:  c.MaxHeight,
			})
		}
		if c.Encode {
			profile := hwscan.ProfileMain
			if depth == hwscan.Bit10 {
				profile = hwscan.ProfileMain10
			}
			s.Encoding = append(s.Encoding, hwscan.EncodingSpec{
				Chroma:     hwscan.ChromaYUV420,
				ColorDepth: depth,
				Profile:    profile,
				MaxWidth:   c.MaxWidth,
				MaxHeight:  c.MaxHeight,
				BFrames:    hwscan.True,
			})
		}
	}
	return s
}
