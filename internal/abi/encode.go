package abi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/smazurov/hwscan/internal/hwscan"
)

// ErrLayout is returned when devices cannot be represented in the layout.
var ErrLayout = errors.New("result does not fit the export layout")

// Size returns the exact arena size Encode needs for devices.
func Size(devices []hwscan.DeviceCapability) (uintptr, error) {
	w := &writer{}
	if err := w.layout(devices); err != nil {
		return 0, err
	}
	return uintptr(w.next), nil
}

// Encode writes devices into buf, which must be exactly Size bytes and
// live at address base. Every pointer stored is base plus an offset.
func Encode(buf []byte, base uintptr, devices []hwscan.DeviceCapability) error {
	size, err := Size(devices)
	if err != nil {
		return err
	}
	if uintptr(len(buf)) != size {
		return fmt.Errorf("%w: buffer is %d bytes, need %d", ErrLayout, len(buf), size)
	}
	clear(buf)

	w := &writer{buf: buf, base: base}
	return w.layout(devices)
}

// writer places records in arena order. With a nil buf it only counts.
type writer struct {
	buf  []byte
	base uintptr
	next int

	strings []pendingString
}

type pendingString struct {
	field int
	value string
}

func (w *writer) reserve(n int) int {
	off := w.next
	w.next += n
	return off
}

func (w *writer) put32(off int, v uint32) {
	if w.buf != nil {
		binary.NativeEndian.PutUint32(w.buf[off:], v)
	}
}

func (w *writer) put64(off int, v uint64) {
	if w.buf != nil {
		binary.NativeEndian.PutUint64(w.buf[off:], v)
	}
}

// putPtr stores the address of off, or 0 when the target is empty.
func (w *writer) putPtr(field, off int, empty bool) {
	if empty {
		w.put64(field, 0)
		return
	}
	w.put64(field, uint64(w.base)+uint64(off))
}

func count(n int, what string) (uint32, error) {
	if uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d %s", ErrLayout, n, what)
	}
	return uint32(n), nil
}

func (w *writer) layout(devices []hwscan.DeviceCapability) error {
	numDevices, err := count(len(devices), "devices")
	if err != nil {
		return err
	}

	header := w.reserve(HeaderSize)
	records := w.reserve(len(devices) * DeviceRecordSize)

	w.put32(header+offMagic, Magic)
	w.put32(header+offVersion, Version)
	w.put32(header+offNumDevices, numDevices)
	w.putPtr(header+offDevices, records, len(devices) == 0)

	for i, dev := range devices {
		if err := w.device(records+i*DeviceRecordSize, dev); err != nil {
			return fmt.Errorf("device %s: %w", dev.ID(), err)
		}
	}

	for _, s := range w.strings {
		off := w.reserve(alignUp(len(s.value)+1, stringAlign))
		if w.buf != nil {
			copy(w.buf[off:], s.value)
		}
		w.putPtr(s.field, off, false)
	}

	w.put64(header+offTotalSize, uint64(w.next))
	return nil
}

func (w *writer) device(rec int, dev hwscan.DeviceCapability) error {
	numCodecs, err := count(len(dev.Codecs), "codecs")
	if err != nil {
		return err
	}

	w.put32(rec+offDeviceDriver, uint32(dev.Driver))
	w.put32(rec+offDeviceOrdinal, dev.Ordinal)
	if err := w.deferString(rec+offDevicePath, dev.Path); err != nil {
		return err
	}
	if err := w.deferString(rec+offDeviceName, dev.Name); err != nil {
		return err
	}

	codecs := w.reserve(len(dev.Codecs) * CodecRecordSize)
	w.putPtr(rec+offDeviceCodecs, codecs, len(dev.Codecs) == 0)
	w.put32(rec+offDeviceNumCodecs, numCodecs)

	for j, support := range dev.Codecs {
		if err := w.codec(codecs+j*CodecRecordSize, support); err != nil {
			return fmt.Errorf("codec %s: %w", support.Codec, err)
		}
	}
	return nil
}

func (w *writer) codec(rec int, s hwscan.CodecSupport) error {
	numDec, err := count(len(s.Decoding), "decoding specs")
	if err != nil {
		return err
	}
	numEnc, err := count(len(s.Encoding), "encoding specs")
	if err != nil {
		return err
	}

	var flags uint32
	if s.Decode {
		flags |= FlagDecode
	}
	if s.Encode {
		flags |= FlagEncode
	}
	w.put32(rec+offCodecID, uint32(s.Codec))
	w.put32(rec+offCodecFlags, flags)

	dec := w.reserve(len(s.Decoding) * DecodingSpecSize)
	for k, spec := range s.Decoding {
		off := dec + k*DecodingSpecSize
		w.put32(off, uint32(spec.Chroma))
		w.put32(off+4, uint32(spec.ColorDepth))
		w.put32(off+8, spec.MaxWidth)
		w.put32(off+12, spec.MaxHeight)
	}

	enc := w.reserve(len(s.Encoding) * EncodingSpecSize)
	for k, spec := range s.Encoding {
		off := enc + k*EncodingSpecSize
		w.put32(off, uint32(spec.Chroma))
		w.put32(off+4, uint32(spec.ColorDepth))
		w.put32(off+8, uint32(spec.Profile))
		w.put32(off+12, spec.MaxWidth)
		w.put32(off+16, spec.MaxHeight)
		w.put32(off+20, uint32(spec.BFrames))
	}

	w.putPtr(rec+offCodecDecoding, dec, len(s.Decoding) == 0)
	w.putPtr(rec+offCodecEncoding, enc, len(s.Encoding) == 0)
	w.put32(rec+offCodecNumDecoding, numDec)
	w.put32(rec+offCodecNumEncoding, numEnc)
	return nil
}

// deferString queues a string for the trailing string area. Empty strings
// stay as null pointers.
func (w *writer) deferString(field int, s string) error {
	if s == "" {
		return nil
	}
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%w: string %q contains NUL", ErrLayout, s)
	}
	w.strings = append(w.strings, pendingString{field: field, value: s})
	return nil
}
