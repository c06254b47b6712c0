// Package nvidia discovers NVDEC and NVENC support on CUDA devices.
//
// libcuda, libnvcuvid and libnvidia-encode are loaded at runtime. Only
// libcuda is required: a host without the decode or encode library reports
// devices that cannot decode or encode respectively.
package nvidia

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
)

var (
	// errNoDevice is CUDA_ERROR_NO_DEVICE from cuInit.
	errNoDevice = errors.New("no CUDA-capable device")

	// errDecoderMissing and errEncoderMissing mean the vendor library for
	// that direction could not be loaded.
	errDecoderMissing = errors.New("libnvcuvid not available")
	errEncoderMissing = errors.New("libnvidia-encode not available")
)

// driver is the CUDA driver API subset needed to list devices.
type driver interface {
	// Init loads libcuda and calls cuInit. It returns errNoDevice when the
	// driver is present but finds no GPU.
	Init() error
	DeviceCount() (int, error)
	DeviceName(ordinal int) (string, error)
	Open(ordinal int) (device, error)
}

// device is a CUDA context on one GPU.
type device interface {
	DecoderCaps(codec cudaVideoCodec, q decodeQuery) (decodeCaps, error)
	OpenEncoder() (encoder, error)
	Close() error
}

// encoder is an open NVENC session.
type encoder interface {
	CodecGUIDs() ([]guid, error)
	ProfileGUIDs(codec guid) ([]guid, error)
	Caps(codec guid, c capability) (int32, error)
	Close() error
}

type decodeQuery struct {
	chroma hwscan.Chroma
	depth  hwscan.ColorDepth
}

type decodeCaps struct {
	supported bool
	maxWidth  uint32
	maxHeight uint32
}

// Platform enumerates CUDA devices.
type Platform struct {
	driver driver
	logger *slog.Logger
}

// New creates the NVIDIA platform backed by the system CUDA driver.
func New() *Platform {
	return &Platform{driver: newDriver(), logger: logging.GetLogger("nvidia")}
}

// Name implements hwscan.Platform.
func (p *Platform) Name() string { return "nvidia" }

// Enumerate lists CUDA devices by ordinal. A device whose name cannot be
// read is skipped; only driver init and the device count fail the platform.
func (p *Platform) Enumerate() ([]hwscan.Candidate, error) {
	if err := p.driver.Init(); err != nil {
		if errors.Is(err, errNoDevice) || errors.Is(err, hwscan.ErrPlatformUnavailable) {
			return nil, fmt.Errorf("%w: %v", hwscan.ErrPlatformUnavailable, err)
		}
		return nil, err
	}

	count, err := p.driver.DeviceCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: no CUDA devices", hwscan.ErrPlatformUnavailable)
	}

	candidates := make([]hwscan.Candidate, 0, count)
	for i := 0; i < count; i++ {
		name, err := p.driver.DeviceName(i)
		if err != nil {
			p.logger.Warn("Skipping CUDA device", "ordinal", i, "error", err)
			continue
		}
		candidates = append(candidates, hwscan.Candidate{
			Driver:  hwscan.DriverNVIDIA,
			Ordinal: uint32(i),
			Name:    strings.TrimSpace(name),
		})
	}
	return candidates, nil
}

// Open creates a context on the device and, when possible, an encode
// session. A device whose encode session cannot be opened is probed for
// decode only.
func (p *Platform) Open(c hwscan.Candidate) (hwscan.Prober, error) {
	dev, err := p.driver.Open(int(c.Ordinal))
	if err != nil {
		return nil, err
	}

	logger := p.logger.With("device", c.ID())
	pr := &prober{device: dev, logger: logger, decode: true}

	enc, err := dev.OpenEncoder()
	switch {
	case err == nil:
		pr.encoder = enc
	case errors.Is(err, errEncoderMissing):
		logger.Debug("NVENC library not available, encode disabled")
	default:
		logger.Warn("Failed to open encode session, encode disabled", "error", err)
	}
	return pr, nil
}

type prober struct {
	device  device
	encoder encoder
	logger  *slog.Logger

	// decode turns false once libnvcuvid is known to be missing.
	decode bool
	// codecGUIDs caches the encoder's codec list.
	codecGUIDs map[guid]bool
}

func (pr *prober) Name() string { return "" }

func (pr *prober) Close() error {
	var errs []error
	if pr.encoder != nil {
		errs = append(errs, pr.encoder.Close())
	}
	errs = append(errs, pr.device.Close())
	return errors.Join(errs...)
}

// Probe reports NVDEC and NVENC support for codec.
func (pr *prober) Probe(codec hwscan.Codec) (hwscan.CodecSupport, error) {
	var support hwscan.CodecSupport

	decoding, err := pr.probeDecode(codec)
	if err != nil {
		return support, err
	}
	encoding, err := pr.probeEncode(codec)
	if err != nil {
		return support, err
	}

	support.Decode = len(decoding) > 0
	support.Decoding = decoding
	support.Encode = len(encoding) > 0
	support.Encoding = encoding
	return support, nil
}

func (pr *prober) probeDecode(codec hwscan.Codec) ([]hwscan.DecodingSpec, error) {
	cc, ok := decodeCodecs[codec]
	if !ok || !pr.decode {
		return nil, nil
	}

	var specs []hwscan.DecodingSpec
	for _, q := range decodeQueries {
		caps, err := pr.device.DecoderCaps(cc, q)
		if errors.Is(err, errDecoderMissing) {
			pr.logger.Debug("NVDEC library not available, decode disabled")
			pr.decode = false
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoder caps %s %s: %w", q.chroma, q.depth, err)
		}
		if !caps.supported {
			continue
		}
		specs = append(specs, hwscan.DecodingSpec{
			Chroma:     q.chroma,
			ColorDepth: q.depth,
			MaxWidth:   caps.maxWidth,
			MaxHeight:  caps.maxHeight,
		})
	}
	return specs, nil
}

func (pr *prober) probeEncode(codec hwscan.Codec) ([]hwscan.EncodingSpec, error) {
	codecGUID, ok := encodeCodecs[codec]
	if !ok || pr.encoder == nil {
		return nil, nil
	}

	if pr.codecGUIDs == nil {
		guids, err := pr.encoder.CodecGUIDs()
		if err != nil {
			return nil, fmt.Errorf("encode GUIDs: %w", err)
		}
		pr.codecGUIDs = make(map[guid]bool, len(guids))
		for _, g := range guids {
			pr.codecGUIDs[g] = true
		}
	}
	if !pr.codecGUIDs[codecGUID] {
		return nil, nil
	}

	caps := make(map[capability]int32)
	for _, c := range []capability{capWidthMax, capHeightMax, capNumMaxBFrames, capSupportYUV444Encode, capSupport10BitEncode} {
		v, err := pr.encoder.Caps(codecGUID, c)
		if err != nil {
			return nil, fmt.Errorf("encode caps %d: %w", c, err)
		}
		caps[c] = v
	}

	profiles, err := pr.encoder.ProfileGUIDs(codecGUID)
	if err != nil {
		return nil, fmt.Errorf("profile GUIDs: %w", err)
	}

	base := hwscan.EncodingSpec{
		MaxWidth:  nonNegative(caps[capWidthMax]),
		MaxHeight: nonNegative(caps[capHeightMax]),
		BFrames:   hwscan.ThreeValueOf(caps[capNumMaxBFrames] > 0),
	}

	var specs []hwscan.EncodingSpec
	for _, profile := range profiles {
		for _, v := range encodeProfiles[profile] {
			if v.requires != capNone && caps[v.requires] == 0 {
				continue
			}
			spec := base
			spec.Profile = v.profile
			spec.Chroma = v.chroma
			spec.ColorDepth = v.depth
			specs = append(specs, spec)
		}
	}

	// Profiles this build does not know still prove the codec encodes.
	if len(specs) == 0 {
		spec := base
		spec.Chroma = hwscan.ChromaYUV420
		spec.ColorDepth = hwscan.Bit8
		specs = append(specs, spec)
	}
	return specs, nil
}

func nonNegative(v int32) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}
