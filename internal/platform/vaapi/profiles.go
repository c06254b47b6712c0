package vaapi

import "github.com/smazurov/hwscan/internal/hwscan"

// vaProfile mirrors VAProfile from va.h.
type vaProfile int32

const (
	profileMPEG2Simple             vaProfile = 0
	profileMPEG2Main               vaProfile = 1
	profileMPEG4Simple             vaProfile = 2
	profileMPEG4AdvancedSimple     vaProfile = 3
	profileMPEG4Main               vaProfile = 4
	profileH264Main                vaProfile = 6
	profileH264High                vaProfile = 7
	profileVC1Simple               vaProfile = 8
	profileVC1Main                 vaProfile = 9
	profileVC1Advanced             vaProfile = 10
	profileH264ConstrainedBaseline vaProfile = 13
	profileVP8Version0_3           vaProfile = 14
	profileHEVCMain                vaProfile = 17
	profileHEVCMain10              vaProfile = 18
	profileVP9Profile0             vaProfile = 19
	profileVP9Profile1             vaProfile = 20
	profileVP9Profile2             vaProfile = 21
	profileVP9Profile3             vaProfile = 22
	profileHEVCMain12              vaProfile = 23
	profileHEVCMain422_10          vaProfile = 24
	profileHEVCMain422_12          vaProfile = 25
	profileHEVCMain444             vaProfile = 26
	profileHEVCMain444_10          vaProfile = 27
	profileHEVCMain444_12          vaProfile = 28
	profileAV1Profile0             vaProfile = 32
	profileAV1Profile1             vaProfile = 33
	profileH264High10              vaProfile = 36
)

// vaEntrypoint mirrors VAEntrypoint.
type vaEntrypoint int32

const (
	entrypointVLD        vaEntrypoint = 1
	entrypointEncSlice   vaEntrypoint = 6
	entrypointEncPicture vaEntrypoint = 7
	entrypointEncSliceLP vaEntrypoint = 8
)

func (e vaEntrypoint) decodes() bool { return e == entrypointVLD }

func (e vaEntrypoint) encodes() bool {
	return e == entrypointEncSlice || e == entrypointEncSliceLP
}

// vaConfigAttribType mirrors VAConfigAttribType.
type vaConfigAttribType int32

const (
	attribRTFormat         vaConfigAttribType = 0
	attribEncMaxRefFrames  vaConfigAttribType = 13
	attribMaxPictureWidth  vaConfigAttribType = 18
	attribMaxPictureHeight vaConfigAttribType = 19
)

// attribNotSupported is VA_ATTRIB_NOT_SUPPORTED.
const attribNotSupported uint32 = 0x80000000

// variant is one VA profile with the stream format it implies.
type variant struct {
	profile vaProfile
	chroma  hwscan.Chroma
	depth   hwscan.ColorDepth
	encode  hwscan.EncodeProfile
}

// variants lists, per codec, the VA profiles probed and what each means.
// MPEG-1 has no VA profile.
var variants = map[hwscan.Codec][]variant{
	hwscan.CodecMPEG2: {
		{profileMPEG2Simple, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileUnknown},
		{profileMPEG2Main, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileMain},
	},
	hwscan.CodecMPEG4: {
		{profileMPEG4Simple, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileUnknown},
		{profileMPEG4AdvancedSimple, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileUnknown},
		{profileMPEG4Main, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileMain},
	},
	hwscan.CodecVC1: {
		{profileVC1Simple, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileUnknown},
		{profileVC1Main, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileMain},
		{profileVC1Advanced, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileUnknown},
	},
	hwscan.CodecH264: {
		{profileH264ConstrainedBaseline, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileBaseline},
		{profileH264Main, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileMain},
		{profileH264High, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileHigh},
		{profileH264High10, hwscan.ChromaYUV420, hwscan.Bit10, hwscan.ProfileHigh10},
	},
	hwscan.CodecHEVC: {
		{profileHEVCMain, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileMain},
		{profileHEVCMain10, hwscan.ChromaYUV420, hwscan.Bit10, hwscan.ProfileMain10},
		{profileHEVCMain12, hwscan.ChromaYUV420, hwscan.Bit12, hwscan.ProfileUnknown},
		{profileHEVCMain422_10, hwscan.ChromaYUV422, hwscan.Bit10, hwscan.ProfileUnknown},
		{profileHEVCMain422_12, hwscan.ChromaYUV422, hwscan.Bit12, hwscan.ProfileUnknown},
		{profileHEVCMain444, hwscan.ChromaYUV444, hwscan.Bit8, hwscan.ProfileUnknown},
		{profileHEVCMain444_10, hwscan.ChromaYUV444, hwscan.Bit10, hwscan.ProfileUnknown},
		{profileHEVCMain444_12, hwscan.ChromaYUV444, hwscan.Bit12, hwscan.ProfileUnknown},
	},
	hwscan.CodecVP8: {
		{profileVP8Version0_3, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileUnknown},
	},
	hwscan.CodecVP9: {
		{profileVP9Profile0, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileUnknown},
		{profileVP9Profile1, hwscan.ChromaYUV444, hwscan.Bit8, hwscan.ProfileUnknown},
		{profileVP9Profile2, hwscan.ChromaYUV420, hwscan.Bit10, hwscan.ProfileUnknown},
		{profileVP9Profile3, hwscan.ChromaYUV444, hwscan.Bit10, hwscan.ProfileUnknown},
	},
	hwscan.CodecAV1: {
		{profileAV1Profile0, hwscan.ChromaYUV420, hwscan.Bit8, hwscan.ProfileMain},
		{profileAV1Profile0, hwscan.ChromaYUV420, hwscan.Bit10, hwscan.ProfileMain10},
		{profileAV1Profile1, hwscan.ChromaYUV444, hwscan.Bit8, hwscan.ProfileUnknown},
	},
}
