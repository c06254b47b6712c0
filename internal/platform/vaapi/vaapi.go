// Package vaapi discovers codec support on DRM render nodes through libva.
package vaapi

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
)

// DefaultDRIDir is where render nodes live.
const DefaultDRIDir = "/dev/dri"

const renderNodePrefix = "renderD"

// renderNodeBase is the minor number of renderD128.
const renderNodeBase = 128

// display is an initialised VADisplay.
type display interface {
	VendorString() string
	Profiles() ([]vaProfile, error)
	Entrypoints(profile vaProfile) ([]vaEntrypoint, error)
	// Attributes returns the value of each requested attribute,
	// attribNotSupported for the ones the driver does not know.
	Attributes(profile vaProfile, entrypoint vaEntrypoint, types ...vaConfigAttribType) (map[vaConfigAttribType]uint32, error)
	Terminate() error
}

// Platform enumerates VA-API capable render nodes.
type Platform struct {
	dir    string
	load   func() error
	open   func(path string) (display, error)
	logger *slog.Logger
}

// Option configures a Platform.
type Option func(*Platform)

// WithDRIDir overrides the render node directory.
func WithDRIDir(dir string) Option {
	return func(p *Platform) { p.dir = dir }
}

// New creates the VA-API platform backed by the system libva.
func New(opts ...Option) *Platform {
	p := &Platform{
		dir:    DefaultDRIDir,
		load:   loadLibVA,
		open:   openDisplay,
		logger: logging.GetLogger("vaapi"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements hwscan.Platform.
func (p *Platform) Name() string { return "vaapi" }

// Enumerate lists render nodes ordered by minor number.
func (p *Platform) Enumerate() ([]hwscan.Candidate, error) {
	if err := p.load(); err != nil {
		return nil, fmt.Errorf("%w: %v", hwscan.ErrPlatformUnavailable, err)
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", hwscan.ErrPlatformUnavailable, p.dir)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p.dir, err)
	}

	type node struct {
		minor int
		name  string
	}
	var nodes []node
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, renderNodePrefix) {
			continue
		}
		minor, err := strconv.Atoi(strings.TrimPrefix(name, renderNodePrefix))
		if err != nil || minor < renderNodeBase {
			continue
		}
		nodes = append(nodes, node{minor: minor, name: name})
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no render nodes in %s", hwscan.ErrPlatformUnavailable, p.dir)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].minor < nodes[j].minor })

	candidates := make([]hwscan.Candidate, 0, len(nodes))
	for _, n := range nodes {
		candidates = append(candidates, hwscan.Candidate{
			Driver:  hwscan.DriverVAAPI,
			Ordinal: uint32(n.minor - renderNodeBase),
			Path:    filepath.Join(p.dir, n.name),
			Name:    n.name,
		})
	}
	return candidates, nil
}

// Open initialises a VADisplay on the candidate's render node.
func (p *Platform) Open(c hwscan.Candidate) (hwscan.Prober, error) {
	d, err := p.open(c.Path)
	if err != nil {
		return nil, err
	}
	return &prober{
		display:     d,
		entrypoints: make(map[vaProfile][]vaEntrypoint),
		logger:      p.logger.With("device", c.Path),
	}, nil
}

type prober struct {
	display     display
	profiles    map[vaProfile]bool
	entrypoints map[vaProfile][]vaEntrypoint
	logger      *slog.Logger
}

func (pr *prober) Name() string {
	return strings.TrimSpace(pr.display.VendorString())
}

func (pr *prober) Close() error {
	return pr.display.Terminate()
}

// Probe maps codec to its VA profiles and reports the entrypoints found.
func (pr *prober) Probe(codec hwscan.Codec) (hwscan.CodecSupport, error) {
	var support hwscan.CodecSupport

	if err := pr.loadProfiles(); err != nil {
		return support, err
	}

	for _, v := range variants[codec] {
		if !pr.profiles[v.profile] {
			continue
		}
		entrypoints, err := pr.entrypointsFor(v.profile)
		if err != nil {
			return support, err
		}

		for _, ep := range entrypoints {
			switch {
			case ep.decodes():
				spec, ok, err := pr.decodingSpec(v, ep)
				if err != nil {
					return support, err
				}
				if ok && !containsDecoding(support.Decoding, spec) {
					support.Decode = true
					support.Decoding = append(support.Decoding, spec)
				}
			case ep.encodes():
				spec, ok, err := pr.encodingSpec(v, ep)
				if err != nil {
					return support, err
				}
				if ok && !containsEncoding(support.Encoding, spec) {
					support.Encode = true
					support.Encoding = append(support.Encoding, spec)
				}
			}
		}
	}

	pr.logger.Debug("Probed codec", "codec", codec, "decode", support.Decode, "encode", support.Encode)
	return support, nil
}

func (pr *prober) loadProfiles() error {
	if pr.profiles != nil {
		return nil
	}
	profiles, err := pr.display.Profiles()
	if err != nil {
		return err
	}
	pr.profiles = make(map[vaProfile]bool, len(profiles))
	for _, p := range profiles {
		pr.profiles[p] = true
	}
	return nil
}

func (pr *prober) entrypointsFor(profile vaProfile) ([]vaEntrypoint, error) {
	if eps, ok := pr.entrypoints[profile]; ok {
		return eps, nil
	}
	eps, err := pr.display.Entrypoints(profile)
	if err != nil {
		return nil, err
	}
	pr.entrypoints[profile] = eps
	return eps, nil
}

func (pr *prober) decodingSpec(v variant, ep vaEntrypoint) (hwscan.DecodingSpec, bool, error) {
	attrs, err := pr.display.Attributes(v.profile, ep, attribRTFormat, attribMaxPictureWidth, attribMaxPictureHeight)
	if err != nil {
		return hwscan.DecodingSpec{}, false, err
	}
	if !rtFormatAllows(attrs[attribRTFormat], v.chroma, v.depth) {
		return hwscan.DecodingSpec{}, false, nil
	}
	return hwscan.DecodingSpec{
		Chroma:     v.chroma,
		ColorDepth: v.depth,
		MaxWidth:   attribValue(attrs[attribMaxPictureWidth]),
		MaxHeight:  attribValue(attrs[attribMaxPictureHeight]),
	}, true, nil
}

func (pr *prober) encodingSpec(v variant, ep vaEntrypoint) (hwscan.EncodingSpec, bool, error) {
	attrs, err := pr.display.Attributes(v.profile, ep,
		attribRTFormat, attribMaxPictureWidth, attribMaxPictureHeight, attribEncMaxRefFrames)
	if err != nil {
		return hwscan.EncodingSpec{}, false, err
	}
	if !rtFormatAllows(attrs[attribRTFormat], v.chroma, v.depth) {
		return hwscan.EncodingSpec{}, false, nil
	}
	return hwscan.EncodingSpec{
		Chroma:     v.chroma,
		ColorDepth: v.depth,
		Profile:    v.encode,
		MaxWidth:   attribValue(attrs[attribMaxPictureWidth]),
		MaxHeight:  attribValue(attrs[attribMaxPictureHeight]),
		BFrames:    bFrames(attrs[attribEncMaxRefFrames]),
	}, true, nil
}

// VA_RT_FORMAT_* bits.
const (
	rtYUV420    uint32 = 0x00000001
	rtYUV422    uint32 = 0x00000002
	rtYUV444    uint32 = 0x00000004
	rtYUV420_10 uint32 = 0x00000100
	rtYUV422_10 uint32 = 0x00000200
	rtYUV444_10 uint32 = 0x00000400
	rtYUV420_12 uint32 = 0x00001000
	rtYUV422_12 uint32 = 0x00002000
	rtYUV444_12 uint32 = 0x00004000
)

// rtFormatAllows checks the surface formats a config accepts. A driver
// that does not report them is taken at its profile's word.
func rtFormatAllows(rt uint32, chroma hwscan.Chroma, depth hwscan.ColorDepth) bool {
	if rt == attribNotSupported || rt == 0 {
		return true
	}
	var want uint32
	switch {
	case chroma == hwscan.ChromaYUV420 && depth == hwscan.Bit8:
		want = rtYUV420
	case chroma == hwscan.ChromaYUV420 && depth == hwscan.Bit10:
		want = rtYUV420_10
	case chroma == hwscan.ChromaYUV420 && depth == hwscan.Bit12:
		want = rtYUV420_12
	case chroma == hwscan.ChromaYUV422 && depth == hwscan.Bit8:
		want = rtYUV422
	case chroma == hwscan.ChromaYUV422 && depth == hwscan.Bit10:
		want = rtYUV422_10
	case chroma == hwscan.ChromaYUV422 && depth == hwscan.Bit12:
		want = rtYUV422_12
	case chroma == hwscan.ChromaYUV444 && depth == hwscan.Bit8:
		want = rtYUV444
	case chroma == hwscan.ChromaYUV444 && depth == hwscan.Bit10:
		want = rtYUV444_10
	case chroma == hwscan.ChromaYUV444 && depth == hwscan.Bit12:
		want = rtYUV444_12
	default:
		return true
	}
	return rt&want != 0
}

func attribValue(v uint32) uint32 {
	if v == attribNotSupported {
		return 0
	}
	return v
}

// bFrames reads VAConfigAttribEncMaxRefFrames: bits 16-31 hold the number
// of backward references, which B-frames need.
func bFrames(v uint32) hwscan.ThreeValue {
	if v == attribNotSupported {
		return hwscan.Unknown
	}
	return hwscan.ThreeValueOf(v>>16&0xffff > 0)
}

func containsDecoding(specs []hwscan.DecodingSpec, spec hwscan.DecodingSpec) bool {
	for _, s := range specs {
		if s == spec {
			return true
		}
	}
	return false
}

func containsEncoding(specs []hwscan.EncodingSpec, spec hwscan.EncodingSpec) bool {
	for _, s := range specs {
		if s == spec {
			return true
		}
	}
	return false
}
