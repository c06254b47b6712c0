package hwscan

import (
	"encoding/json"
	"testing"
)

func TestParseCodec(t *testing.T) {
	tests := []struct {
		input   string
		want    Codec
		wantErr bool
	}{
		{"h264", CodecH264, false},
		{"AVC", CodecH264, false},
		{" hevc ", CodecHEVC, false},
		{"H.265", CodecHEVC, false},
		{"av1", CodecAV1, false},
		{"vp9", CodecVP9, false},
		{"mpeg2video", CodecMPEG2, false},
		{"vc-1", CodecVC1, false},
		{"prores", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCodec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCodec(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCodec(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCodecsRejectsDuplicates(t *testing.T) {
	if _, err := ParseCodecs([]string{"h264", "avc"}); err == nil {
		t.Fatal("expected duplicate codec error")
	}

	codecs, err := ParseCodecs([]string{"hevc", "", "av1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codecs) != 2 || codecs[0] != CodecHEVC || codecs[1] != CodecAV1 {
		t.Errorf("ParseCodecs = %v", codecs)
	}
}

func TestCodecValuesAreStable(t *testing.T) {
	// These values are part of the exported layout.
	want := map[Codec]uint32{
		CodecMPEG1: 1,
		CodecMPEG2: 2,
		CodecMPEG4: 4,
		CodecVC1:   7,
		CodecVP8:   8,
		CodecVP9:   9,
		CodecAV1:   10,
		CodecH264:  264,
		CodecHEVC:  265,
	}
	for codec, value := range want {
		if uint32(codec) != value {
			t.Errorf("%s = %d, want %d", codec, uint32(codec), value)
		}
	}
	if len(AllCodecs()) != len(want) {
		t.Errorf("AllCodecs has %d entries, want %d", len(AllCodecs()), len(want))
	}
}

func TestAllCodecsReturnsCopy(t *testing.T) {
	a := AllCodecs()
	a[0] = CodecAV1
	if AllCodecs()[0] != CodecMPEG1 {
		t.Error("AllCodecs exposes internal slice")
	}
}

func TestCodecJSONUsesNames(t *testing.T) {
	data, err := json.Marshal(CodecSupport{Codec: CodecHEVC, Decode: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back CodecSupport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Codec != CodecHEVC {
		t.Errorf("codec = %v, want hevc (json %s)", back.Codec, data)
	}
}

func TestDeviceID(t *testing.T) {
	byPath := DeviceCapability{Driver: DriverVAAPI, Path: "/dev/dri/renderD128"}
	if got := byPath.ID(); got != "vaapi:/dev/dri/renderD128" {
		t.Errorf("ID() = %q", got)
	}
	byOrdinal := DeviceCapability{Driver: DriverNVIDIA, Ordinal: 1}
	if got := byOrdinal.ID(); got != "nvidia:1" {
		t.Errorf("ID() = %q", got)
	}
	if got := (Candidate{Driver: DriverNVIDIA, Ordinal: 1}).ID(); got != byOrdinal.ID() {
		t.Errorf("Candidate.ID() = %q, want %q", got, byOrdinal.ID())
	}
}

func TestDeviceSupportLookups(t *testing.T) {
	d := DeviceCapability{Codecs: []CodecSupport{
		{Codec: CodecH264, Decode: true, Encode: true},
		{Codec: CodecHEVC, Decode: true},
	}}
	if !d.CanEncode(CodecH264) || !d.CanDecode(CodecHEVC) {
		t.Error("expected h264 encode and hevc decode")
	}
	if d.CanEncode(CodecHEVC) || d.CanDecode(CodecAV1) {
		t.Error("unexpected support reported")
	}
}
