// Package v4l2m2m discovers stateful codec blocks exposed as V4L2
// memory-to-memory video nodes.
package v4l2m2m

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/smazurov/hwscan/pkg/linuxav/v4l2"
)

// node is an open video node.
type node interface {
	Info() v4l2.DeviceInfo
	Queues() (output, capture v4l2.BufType)
	Formats(bufType v4l2.BufType) ([]v4l2.FormatInfo, error)
	FrameSizes(pixelFormat uint32) (v4l2.FrameSizeRange, error)
	Close() error
}

// Platform enumerates mem2mem codec nodes.
type Platform struct {
	find   func() ([]v4l2.DeviceInfo, error)
	open   func(path string) (node, error)
	logger *slog.Logger
}

// New creates the V4L2 mem2mem platform.
func New() *Platform {
	return &Platform{
		find: v4l2.FindDevices,
		open: func(path string) (node, error) {
			return v4l2.Open(path)
		},
		logger: logging.GetLogger("v4l2m2m"),
	}
}

// Name implements hwscan.Platform.
func (p *Platform) Name() string { return "v4l2m2m" }

// Enumerate lists mem2mem nodes by video node index.
func (p *Platform) Enumerate() ([]hwscan.Candidate, error) {
	devices, err := p.find()
	if err != nil {
		if errors.Is(err, v4l2.ErrNotSupported) {
			return nil, fmt.Errorf("%w: %v", hwscan.ErrPlatformUnavailable, err)
		}
		return nil, err
	}

	var candidates []hwscan.Candidate
	for _, dev := range devices {
		if !dev.IsM2M() {
			continue
		}
		ordinal := uint32(0)
		if dev.Index >= 0 {
			ordinal = uint32(dev.Index)
		}
		candidates = append(candidates, hwscan.Candidate{
			Driver:  hwscan.DriverV4L2M2M,
			Ordinal: ordinal,
			Path:    dev.Path,
			Name:    dev.Card,
		})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no mem2mem video nodes", hwscan.ErrPlatformUnavailable)
	}
	return candidates, nil
}

// Open opens the node and reads the formats of both queues.
func (p *Platform) Open(c hwscan.Candidate) (hwscan.Prober, error) {
	n, err := p.open(c.Path)
	if err != nil {
		return nil, err
	}

	output, capture := n.Queues()
	pr := &prober{node: n, logger: p.logger.With("device", c.Path)}
	if pr.output, err = n.Formats(output); err != nil {
		n.Close()
		return nil, err
	}
	if pr.capture, err = n.Formats(capture); err != nil {
		n.Close()
		return nil, err
	}
	pr.logger.Debug("Queue formats", "output", len(pr.output), "capture", len(pr.capture), "mplane", output == v4l2.BufTypeVideoOutputMPlane)
	return pr, nil
}

type prober struct {
	node    node
	output  []v4l2.FormatInfo
	capture []v4l2.FormatInfo
	logger  *slog.Logger
}

func (pr *prober) Name() string { return pr.node.Info().Card }

func (pr *prober) Close() error { return pr.node.Close() }

// Probe reports decode when the codec's bitstream is accepted on the
// OUTPUT queue and encode when it is produced on the CAPTURE queue.
func (pr *prober) Probe(codec hwscan.Codec) (hwscan.CodecSupport, error) {
	var support hwscan.CodecSupport
	fourccs := codecFormats[codec]

	if f, ok := findCompressed(pr.output, fourccs); ok {
		size, err := pr.node.FrameSizes(f.PixelFormat)
		if err != nil {
			return support, err
		}
		support.Decode = true
		support.Decoding = append(support.Decoding, hwscan.DecodingSpec{
			Chroma:     hwscan.ChromaYUV420,
			ColorDepth: hwscan.Bit8,
			MaxWidth:   size.MaxWidth,
			MaxHeight:  size.MaxHeight,
		})
		if hasRaw(pr.capture, v4l2.PixFmtP010) {
			support.Decoding = append(support.Decoding, hwscan.DecodingSpec{
				Chroma:     hwscan.ChromaYUV420,
				ColorDepth: hwscan.Bit10,
				MaxWidth:   size.MaxWidth,
				MaxHeight:  size.MaxHeight,
			})
		}
	}

	if f, ok := findCompressed(pr.capture, fourccs); ok {
		size, err := pr.node.FrameSizes(f.PixelFormat)
		if err != nil {
			return support, err
		}
		support.Encode = true
		support.Encoding = append(support.Encoding, hwscan.EncodingSpec{
			Chroma:     hwscan.ChromaYUV420,
			ColorDepth: hwscan.Bit8,
			Profile:    hwscan.ProfileUnknown,
			MaxWidth:   size.MaxWidth,
			MaxHeight:  size.MaxHeight,
			BFrames:    hwscan.Unknown,
		})
	}

	return support, nil
}

func findCompressed(formats []v4l2.FormatInfo, fourccs []uint32) (v4l2.FormatInfo, bool) {
	for _, want := range fourccs {
		for _, f := range formats {
			if f.PixelFormat == want && f.Compressed() {
				return f, true
			}
		}
	}
	return v4l2.FormatInfo{}, false
}

func hasRaw(formats []v4l2.FormatInfo, fourcc uint32) bool {
	for _, f := range formats {
		if f.PixelFormat == fourcc && !f.Compressed() {
			return true
		}
	}
	return false
}
