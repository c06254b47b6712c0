package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/hwscan/internal/hwscan"
)

func sample() Document {
	devices := []hwscan.DeviceCapability{
		{
			Driver:  hwscan.DriverVAAPI,
			Ordinal: 0,
			Path:    "/dev/dri/renderD128",
			Name:    "Intel iHD driver",
			Codecs: []hwscan.CodecSupport{
				{
					Codec:  hwscan.CodecH264,
					Decode: true,
					Encode: true,
					Decoding: []hwscan.DecodingSpec{
						{Chroma: hwscan.ChromaYUV420, ColorDepth: hwscan.Bit8, MaxWidth: 4096, MaxHeight: 4096},
					},
					Encoding: []hwscan.EncodingSpec{
						{Chroma: hwscan.ChromaYUV420, ColorDepth: hwscan.Bit8, Profile: hwscan.ProfileHigh, MaxWidth: 4096, MaxHeight: 4096, BFrames: hwscan.True},
					},
				},
			},
		},
	}
	return New(devices, time.Date(2026, 1, 27, 10, 30, 0, 0, time.UTC), 42*time.Millisecond)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatText, false},
		{"JSON", FormatJSON, false},
		{" toml ", FormatTOML, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), FormatText))

	out := buf.String()
	assert.Contains(t, out, "1 device(s)")
	assert.Contains(t, out, "vaapi:/dev/dri/renderD128")
	assert.Contains(t, out, "decode+encode")
	assert.Contains(t, out, "yuv420 8bit high")
	assert.Contains(t, out, "b-frames=true")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), FormatJSON))
	assert.True(t, strings.Contains(buf.String(), `"driver": "vaapi"`))
	assert.True(t, strings.Contains(buf.String(), `"codec": "h264"`))
}

func TestRenderEmptyDevicesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, New(nil, time.Now(), 0), FormatJSON))
	assert.Contains(t, buf.String(), `"devices": []`)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	doc := sample()

	for _, name := range []string{"scan.json", "nested/scan.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, doc))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, doc.Devices, loaded.Devices)
			assert.True(t, doc.ScannedAt.Equal(loaded.ScannedAt))
		})
	}
}

func TestSaveUnknownExtension(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "scan.yaml"), sample())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.txt")
	require.NoError(t, Save(path, sample()))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
