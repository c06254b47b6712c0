package v4l2m2m

import (
	"errors"
	"testing"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/smazurov/hwscan/pkg/linuxav/v4l2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	info    v4l2.DeviceInfo
	formats map[v4l2.BufType][]v4l2.FormatInfo
	sizes   map[uint32]v4l2.FrameSizeRange
	sizeErr error
	closed  bool
}

func (n *fakeNode) Info() v4l2.DeviceInfo { return n.info }

func (n *fakeNode) Queues() (output, capture v4l2.BufType) {
	if n.info.IsMPlane() {
		return v4l2.BufTypeVideoOutputMPlane, v4l2.BufTypeVideoCaptureMPlane
	}
	return v4l2.BufTypeVideoOutput, v4l2.BufTypeVideoCapture
}

func (n *fakeNode) Formats(bufType v4l2.BufType) ([]v4l2.FormatInfo, error) {
	return n.formats[bufType], nil
}

func (n *fakeNode) FrameSizes(pixelFormat uint32) (v4l2.FrameSizeRange, error) {
	return n.sizes[pixelFormat], n.sizeErr
}

func (n *fakeNode) Close() error {
	n.closed = true
	return nil
}

func compressed(fourcc uint32) v4l2.FormatInfo {
	return v4l2.FormatInfo{PixelFormat: fourcc, Flags: v4l2.FmtFlagCompressed}
}

func raw(fourcc uint32) v4l2.FormatInfo {
	return v4l2.FormatInfo{PixelFormat: fourcc}
}

// rpiDecoder looks like the bcm2835-codec decode node.
func rpiDecoder() *fakeNode {
	return &fakeNode{
		info: v4l2.DeviceInfo{Path: "/dev/video10", Index: 10, Card: "bcm2835-codec-decode", Caps: v4l2.CapVideoM2MMPlane},
		formats: map[v4l2.BufType][]v4l2.FormatInfo{
			v4l2.BufTypeVideoOutputMPlane:  {compressed(v4l2.PixFmtH264), compressed(v4l2.PixFmtMPEG2), compressed(v4l2.PixFmtMJPEG)},
			v4l2.BufTypeVideoCaptureMPlane: {raw(v4l2.PixFmtYUV420), raw(v4l2.PixFmtNV12)},
		},
		sizes: map[uint32]v4l2.FrameSizeRange{
			v4l2.PixFmtH264: {MinWidth: 32, MinHeight: 32, MaxWidth: 1920, MaxHeight: 1920},
		},
	}
}

func newTestPlatform(devices []v4l2.DeviceInfo, findErr error, nodes map[string]*fakeNode) *Platform {
	return &Platform{
		find: func() ([]v4l2.DeviceInfo, error) { return devices, findErr },
		open: func(path string) (node, error) {
			n, ok := nodes[path]
			if !ok {
				return nil, errors.New("no such device")
			}
			return n, nil
		},
		logger: logging.GetLogger("v4l2m2m"),
	}
}

func TestEnumerateKeepsOnlyM2M(t *testing.T) {
	devices := []v4l2.DeviceInfo{
		{Path: "/dev/video0", Index: 0, Card: "USB Camera", Caps: v4l2.CapVideoCapture | v4l2.CapStreaming},
		{Path: "/dev/video10", Index: 10, Card: "bcm2835-codec-decode", Caps: v4l2.CapVideoM2MMPlane},
		{Path: "/dev/video11", Index: 11, Card: "bcm2835-codec-encode", Caps: v4l2.CapVideoM2M},
	}

	candidates, err := newTestPlatform(devices, nil, nil).Enumerate()
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, hwscan.Candidate{
		Driver: hwscan.DriverV4L2M2M, Ordinal: 10, Path: "/dev/video10", Name: "bcm2835-codec-decode",
	}, candidates[0])
	assert.Equal(t, "/dev/video11", candidates[1].Path)
}

func TestEnumerateUnavailable(t *testing.T) {
	_, err := newTestPlatform(nil, nil, nil).Enumerate()
	assert.ErrorIs(t, err, hwscan.ErrPlatformUnavailable)

	_, err = newTestPlatform(nil, v4l2.ErrNotSupported, nil).Enumerate()
	assert.ErrorIs(t, err, hwscan.ErrPlatformUnavailable)

	camOnly := []v4l2.DeviceInfo{{Path: "/dev/video0", Caps: v4l2.CapVideoCapture}}
	_, err = newTestPlatform(camOnly, nil, nil).Enumerate()
	assert.ErrorIs(t, err, hwscan.ErrPlatformUnavailable)
}

func TestEnumerateFailure(t *testing.T) {
	readErr := errors.New("permission denied")
	_, err := newTestPlatform(nil, readErr, nil).Enumerate()
	require.ErrorIs(t, err, readErr)
	assert.NotErrorIs(t, err, hwscan.ErrPlatformUnavailable)
}

func TestProbeDecoder(t *testing.T) {
	n := rpiDecoder()
	p := newTestPlatform(nil, nil, map[string]*fakeNode{"/dev/video10": n})

	prober, err := p.Open(hwscan.Candidate{Path: "/dev/video10"})
	require.NoError(t, err)
	assert.Equal(t, "bcm2835-codec-decode", prober.Name())

	h264, err := prober.Probe(hwscan.CodecH264)
	require.NoError(t, err)
	assert.True(t, h264.Decode)
	assert.False(t, h264.Encode)
	require.Len(t, h264.Decoding, 1)
	assert.Equal(t, hwscan.DecodingSpec{
		Chroma: hwscan.ChromaYUV420, ColorDepth: hwscan.Bit8, MaxWidth: 1920, MaxHeight: 1920,
	}, h264.Decoding[0])

	// MPEG-2 without ENUM_FRAMESIZES support reports zero dimensions.
	mpeg2, err := prober.Probe(hwscan.CodecMPEG2)
	require.NoError(t, err)
	assert.True(t, mpeg2.Decode)
	assert.Zero(t, mpeg2.Decoding[0].MaxWidth)

	hevc, err := prober.Probe(hwscan.CodecHEVC)
	require.NoError(t, err)
	assert.True(t, hevc.IsEmpty())

	require.NoError(t, prober.Close())
	assert.True(t, n.closed)
}

func TestProbeEncoder(t *testing.T) {
	n := &fakeNode{
		info: v4l2.DeviceInfo{Path: "/dev/video11", Index: 11, Card: "enc", Caps: v4l2.CapVideoM2M},
		formats: map[v4l2.BufType][]v4l2.FormatInfo{
			v4l2.BufTypeVideoOutput:  {raw(v4l2.PixFmtNV12)},
			v4l2.BufTypeVideoCapture: {compressed(v4l2.PixFmtH264), compressed(v4l2.PixFmtVP8)},
		},
		sizes: map[uint32]v4l2.FrameSizeRange{v4l2.PixFmtVP8: {MaxWidth: 1280, MaxHeight: 720}},
	}
	prober, err := newTestPlatform(nil, nil, map[string]*fakeNode{"/dev/video11": n}).Open(hwscan.Candidate{Path: "/dev/video11"})
	require.NoError(t, err)

	vp8, err := prober.Probe(hwscan.CodecVP8)
	require.NoError(t, err)
	assert.False(t, vp8.Decode)
	require.Len(t, vp8.Encoding, 1)
	assert.Equal(t, hwscan.EncodingSpec{
		Chroma: hwscan.ChromaYUV420, ColorDepth: hwscan.Bit8, Profile: hwscan.ProfileUnknown,
		MaxWidth: 1280, MaxHeight: 720, BFrames: hwscan.Unknown,
	}, vp8.Encoding[0])
}

func TestProbeTenBitDecode(t *testing.T) {
	n := rpiDecoder()
	n.formats[v4l2.BufTypeVideoOutputMPlane] = append(n.formats[v4l2.BufTypeVideoOutputMPlane], compressed(v4l2.PixFmtHEVCSlice))
	n.formats[v4l2.BufTypeVideoCaptureMPlane] = append(n.formats[v4l2.BufTypeVideoCaptureMPlane], raw(v4l2.PixFmtP010))
	prober, err := newTestPlatform(nil, nil, map[string]*fakeNode{"/dev/video10": n}).Open(hwscan.Candidate{Path: "/dev/video10"})
	require.NoError(t, err)

	hevc, err := prober.Probe(hwscan.CodecHEVC)
	require.NoError(t, err)
	require.Len(t, hevc.Decoding, 2)
	assert.Equal(t, hwscan.Bit10, hevc.Decoding[1].ColorDepth)
}

func TestProbeFrameSizeError(t *testing.T) {
	n := rpiDecoder()
	n.sizeErr = errors.New("EIO")
	prober, err := newTestPlatform(nil, nil, map[string]*fakeNode{"/dev/video10": n}).Open(hwscan.Candidate{Path: "/dev/video10"})
	require.NoError(t, err)

	_, err = prober.Probe(hwscan.CodecH264)
	assert.Error(t, err)
}

func TestUncompressedFormatIgnored(t *testing.T) {
	// A raw format sharing a fourcc with a codec must not count.
	_, ok := findCompressed([]v4l2.FormatInfo{raw(v4l2.PixFmtH264)}, codecFormats[hwscan.CodecH264])
	assert.False(t, ok)

	f, ok := findCompressed([]v4l2.FormatInfo{compressed(v4l2.PixFmtH264NoSC)}, codecFormats[hwscan.CodecH264])
	require.True(t, ok)
	assert.Equal(t, "AVC1", v4l2.FormatFourCC(f.PixelFormat))
}

func TestEveryCodecHasFormats(t *testing.T) {
	for _, codec := range hwscan.AllCodecs() {
		assert.NotEmpty(t, codecFormats[codec], codec.String())
	}
}
