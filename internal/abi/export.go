package abi

import (
	"encoding/binary"
	"fmt"
	"runtime/debug"
	"unsafe"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/logging"
)

// EnumerateFunc produces the device list for one scan.
type EnumerateFunc func() ([]hwscan.DeviceCapability, error)

// Scan runs enumerate and hands the encoded result to the caller through
// out. *out is NULL unless the status is StatusOK; on success the caller
// owns the arena and must release it with Free exactly once.
func Scan(out *unsafe.Pointer, enumerate EnumerateFunc, alloc Allocator) (status Status) {
	logger := logging.GetLogger("abi")
	if out == nil {
		logger.Warn("scan_devices called with a NULL out pointer")
		return StatusInvalidArgument
	}
	*out = nil

	var mem unsafe.Pointer
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered panic during scan", "panic", r, "stack", string(debug.Stack()))
			if mem != nil {
				alloc.Free(mem)
			}
			*out = nil
			status = StatusInternal
		}
	}()

	devices, err := enumerate()
	if err != nil {
		st := StatusFromError(err)
		logger.Error("Scan failed", "error", err, "status", st.String())
		return st
	}

	size, err := Size(devices)
	if err != nil {
		logger.Error("Scan result cannot be laid out", "error", err)
		return StatusInternal
	}

	mem = alloc.Alloc(size)
	if mem == nil {
		logger.Error("Failed to allocate scan result", "bytes", size)
		return StatusAllocation
	}

	if err := Encode(unsafe.Slice((*byte)(mem), size), uintptr(mem), devices); err != nil {
		logger.Error("Failed to encode scan result", "error", err)
		alloc.Free(mem)
		mem = nil
		return StatusInternal
	}

	*out = mem
	logger.Debug("Scan completed", "devices", len(devices), "bytes", size)
	return StatusOK
}

// Free releases an arena returned by Scan. NULL is ignored. Anything else
// must be a pointer Scan produced and has not been freed yet.
func Free(p unsafe.Pointer, alloc Allocator) {
	if p == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.GetLogger("abi").Error("Recovered panic during free", "panic", r)
		}
	}()
	alloc.Free(p)
}

// View exposes a live arena as a byte slice, sized from its header.
func View(p unsafe.Pointer) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: null result", ErrMalformed)
	}
	header := unsafe.Slice((*byte)(p), HeaderSize)
	if m := binary.NativeEndian.Uint32(header[offMagic:]); m != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", ErrMalformed, m)
	}
	size := binary.NativeEndian.Uint64(header[offTotalSize:])
	if size < HeaderSize {
		return nil, fmt.Errorf("%w: total_size %d", ErrMalformed, size)
	}
	return unsafe.Slice((*byte)(p), size), nil
}
