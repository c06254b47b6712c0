package v4l2m2m

import (
	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/pkg/linuxav/v4l2"
)

// codecFormats lists the bitstream pixel formats of each codec, preferred
// first. Stateless (slice/frame) formats count as well.
var codecFormats = map[hwscan.Codec][]uint32{
	hwscan.CodecH264:  {v4l2.PixFmtH264, v4l2.PixFmtH264NoSC, v4l2.PixFmtH264Slice},
	hwscan.CodecHEVC:  {v4l2.PixFmtHEVC, v4l2.PixFmtHEVCSlice},
	hwscan.CodecMPEG1: {v4l2.PixFmtMPEG1},
	hwscan.CodecMPEG2: {v4l2.PixFmtMPEG2, v4l2.PixFmtMPEG2Slice},
	hwscan.CodecMPEG4: {v4l2.PixFmtMPEG4},
	hwscan.CodecVC1:   {v4l2.PixFmtVC1AnnexG, v4l2.PixFmtVC1AnnexL},
	hwscan.CodecVP8:   {v4l2.PixFmtVP8, v4l2.PixFmtVP8Frame},
	hwscan.CodecVP9:   {v4l2.PixFmtVP9, v4l2.PixFmtVP9Frame},
	hwscan.CodecAV1:   {v4l2.PixFmtAV1Frame},
}
