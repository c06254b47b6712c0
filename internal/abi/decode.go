package abi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/smazurov/hwscan/internal/hwscan"
)

// ErrMalformed is returned by Decode for an arena that violates the layout.
var ErrMalformed = errors.New("malformed scan result")

// Result is a decoded arena.
type Result struct {
	Version   uint32
	TotalSize uint64
	Devices   []hwscan.DeviceCapability
}

// Decode reads an arena that lives at address base. Every pointer must
// land inside buf.
func Decode(buf []byte, base uintptr) (*Result, error) {
	r := &reader{buf: buf, base: uint64(base)}

	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(buf))
	}
	if m := r.u32(offMagic); m != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", ErrMalformed, m)
	}
	res := &Result{
		Version:   r.u32(offVersion),
		TotalSize: r.u64(offTotalSize),
	}
	if res.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, res.Version)
	}
	if res.TotalSize != uint64(len(buf)) {
		return nil, fmt.Errorf("%w: total_size %d, buffer %d", ErrMalformed, res.TotalSize, len(buf))
	}

	n := int(r.u32(offNumDevices))
	records, err := r.array(offDevices, n, DeviceRecordSize)
	if err != nil {
		return nil, fmt.Errorf("devices: %w", err)
	}

	res.Devices = make([]hwscan.DeviceCapability, 0, n)
	for i := 0; i < n; i++ {
		dev, err := r.device(records + i*DeviceRecordSize)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}
		res.Devices = append(res.Devices, dev)
	}
	return res, nil
}

type reader struct {
	buf  []byte
	base uint64
}

func (r *reader) u32(off int) uint32 { return binary.NativeEndian.Uint32(r.buf[off:]) }

func (r *reader) u64(off int) uint64 { return binary.NativeEndian.Uint64(r.buf[off:]) }

// array resolves the pointer at field to an offset and checks that n
// records of size fit behind it.
func (r *reader) array(field, n, size int) (int, error) {
	ptr := r.u64(field)
	if n == 0 {
		if ptr != 0 {
			return 0, fmt.Errorf("%w: non-null pointer to empty array", ErrMalformed)
		}
		return 0, nil
	}
	off, err := r.offset(ptr)
	if err != nil {
		return 0, err
	}
	if off+n*size > len(r.buf) {
		return 0, fmt.Errorf("%w: %d records at offset %d overrun the arena", ErrMalformed, n, off)
	}
	return off, nil
}

func (r *reader) offset(ptr uint64) (int, error) {
	if ptr < r.base || ptr >= r.base+uint64(len(r.buf)) {
		return 0, fmt.Errorf("%w: pointer 0x%x outside arena", ErrMalformed, ptr)
	}
	return int(ptr - r.base), nil
}

func (r *reader) str(field int) (string, error) {
	ptr := r.u64(field)
	if ptr == 0 {
		return "", nil
	}
	off, err := r.offset(ptr)
	if err != nil {
		return "", err
	}
	end := bytes.IndexByte(r.buf[off:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrMalformed, off)
	}
	return string(r.buf[off : off+end]), nil
}

func (r *reader) device(rec int) (hwscan.DeviceCapability, error) {
	dev := hwscan.DeviceCapability{
		Driver:  hwscan.Driver(r.u32(rec + offDeviceDriver)),
		Ordinal: r.u32(rec + offDeviceOrdinal),
	}
	var err error
	if dev.Path, err = r.str(rec + offDevicePath); err != nil {
		return dev, fmt.Errorf("path: %w", err)
	}
	if dev.Name, err = r.str(rec + offDeviceName); err != nil {
		return dev, fmt.Errorf("name: %w", err)
	}

	n := int(r.u32(rec + offDeviceNumCodecs))
	codecs, err := r.array(rec+offDeviceCodecs, n, CodecRecordSize)
	if err != nil {
		return dev, fmt.Errorf("codecs: %w", err)
	}
	for j := 0; j < n; j++ {
		support, err := r.codec(codecs + j*CodecRecordSize)
		if err != nil {
			return dev, fmt.Errorf("codec %d: %w", j, err)
		}
		dev.Codecs = append(dev.Codecs, support)
	}
	return dev, nil
}

func (r *reader) codec(rec int) (hwscan.CodecSupport, error) {
	flags := r.u32(rec + offCodecFlags)
	s := hwscan.CodecSupport{
		Codec:  hwscan.Codec(r.u32(rec + offCodecID)),
		Decode: flags&FlagDecode != 0,
		Encode: flags&FlagEncode != 0,
	}

	numDec := int(r.u32(rec + offCodecNumDecoding))
	dec, err := r.array(rec+offCodecDecoding, numDec, DecodingSpecSize)
	if err != nil {
		return s, fmt.Errorf("decoding: %w", err)
	}
	for k := 0; k < numDec; k++ {
		off := dec + k*DecodingSpecSize
		s.Decoding = append(s.Decoding, hwscan.DecodingSpec{
			Chroma:     hwscan.Chroma(r.u32(off)),
			ColorDepth: hwscan.ColorDepth(r.u32(off + 4)),
			MaxWidth:   r.u32(off + 8),
			MaxHeight:  r.u32(off + 12),
		})
	}

	numEnc := int(r.u32(rec + offCodecNumEncoding))
	enc, err := r.array(rec+offCodecEncoding, numEnc, EncodingSpecSize)
	if err != nil {
		return s, fmt.Errorf("encoding: %w", err)
	}
	for k := 0; k < numEnc; k++ {
		off := enc + k*EncodingSpecSize
		s.Encoding = append(s.Encoding, hwscan.EncodingSpec{
			Chroma:     hwscan.Chroma(r.u32(off)),
			ColorDepth: hwscan.ColorDepth(r.u32(off + 4)),
			Profile:    hwscan.EncodeProfile(r.u32(off + 8)),
			MaxWidth:   r.u32(off + 12),
			MaxHeight:  r.u32(off + 16),
			BFrames:    hwscan.ThreeValue(r.u32(off + 20)),
		})
	}
	return s, nil
}
