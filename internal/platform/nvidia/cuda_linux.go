//go:build linux

package nvidia

import (
	"fmt"
	"runtime"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/platform/dl"
)

const (
	cudaSuccess       = 0
	cudaErrorNoDevice = 100
)

var (
	cuInit             func(flags uint32) int32
	cuDeviceGetCount   func(count *int32) int32
	cuDeviceGet        func(dev *int32, ordinal int32) int32
	cuDeviceGetName    func(name *byte, length int32, dev int32) int32
	cuCtxCreate        func(ctx *uintptr, flags uint32, dev int32) int32
	cuCtxDestroy       func(ctx uintptr) int32
	cuCtxPushCurrent   func(ctx uintptr) int32
	cuCtxPopCurrent    func(ctx *uintptr) int32
	cuGetErrorName     func(status int32, name **byte) int32
	cuvidGetDecoderCap func(caps *cuvidDecodeCaps) int32
)

var libcuda = dl.New(func(handle uintptr) error {
	return dl.Symbols(handle, map[string]any{
		"cuInit":              &cuInit,
		"cuDeviceGetCount":    &cuDeviceGetCount,
		"cuDeviceGet":         &cuDeviceGet,
		"cuDeviceGetName":     &cuDeviceGetName,
		"cuCtxCreate_v2":      &cuCtxCreate,
		"cuCtxDestroy_v2":     &cuCtxDestroy,
		"cuCtxPushCurrent_v2": &cuCtxPushCurrent,
		"cuCtxPopCurrent_v2":  &cuCtxPopCurrent,
		"cuGetErrorName":      &cuGetErrorName,
	})
}, "libcuda.so.1", "libcuda.so")

var libnvcuvid = dl.New(func(handle uintptr) error {
	return dl.Bind(handle, &cuvidGetDecoderCap, "cuvidGetDecoderCaps")
}, "libnvcuvid.so.1", "libnvcuvid.so")

// cuvidDecodeCaps mirrors CUVIDDECODECAPS.
type cuvidDecodeCaps struct {
	codecType        uint32
	chromaFormat     uint32
	bitDepthMinus8   uint32
	reserved1        [3]uint32
	isSupported      uint8
	numNVDECs        uint8
	outputFormatMask uint16
	maxWidth         uint32
	maxHeight        uint32
	maxMBCount       uint32
	minWidth         uint16
	minHeight        uint16
	histogram        uint8
	counterBitDepth  uint8
	maxHistogramBins uint16
	reserved3        [10]uint32
}

type cudaError struct {
	call   string
	status int32
}

func (e *cudaError) Error() string {
	var name *byte
	if cuGetErrorName != nil && cuGetErrorName(e.status, &name) == cudaSuccess {
		return fmt.Sprintf("%s: %s", e.call, dl.GoString(name))
	}
	return fmt.Sprintf("%s: CUresult %d", e.call, e.status)
}

type cudaDriver struct{}

func newDriver() driver { return cudaDriver{} }

func (cudaDriver) Init() error {
	if err := libcuda.Load(); err != nil {
		return fmt.Errorf("%w: %v", hwscan.ErrPlatformUnavailable, err)
	}
	switch st := cuInit(0); st {
	case cudaSuccess:
		return nil
	case cudaErrorNoDevice:
		return errNoDevice
	default:
		return &cudaError{call: "cuInit", status: st}
	}
}

func (cudaDriver) DeviceCount() (int, error) {
	var n int32
	if st := cuDeviceGetCount(&n); st != cudaSuccess {
		return 0, &cudaError{call: "cuDeviceGetCount", status: st}
	}
	return int(n), nil
}

func (cudaDriver) DeviceName(ordinal int) (string, error) {
	var dev int32
	if st := cuDeviceGet(&dev, int32(ordinal)); st != cudaSuccess {
		return "", &cudaError{call: "cuDeviceGet", status: st}
	}
	buf := make([]byte, 256)
	if st := cuDeviceGetName(&buf[0], int32(len(buf)), dev); st != cudaSuccess {
		return "", &cudaError{call: "cuDeviceGetName", status: st}
	}
	return dl.StringFromBytes(buf), nil
}

func (cudaDriver) Open(ordinal int) (device, error) {
	var dev int32
	if st := cuDeviceGet(&dev, int32(ordinal)); st != cudaSuccess {
		return nil, &cudaError{call: "cuDeviceGet", status: st}
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var ctx uintptr
	if st := cuCtxCreate(&ctx, 0, dev); st != cudaSuccess {
		return nil, &cudaError{call: "cuCtxCreate", status: st}
	}
	// cuCtxCreate leaves the context current on this thread.
	var popped uintptr
	cuCtxPopCurrent(&popped)

	return &cudaDevice{ctx: ctx}, nil
}

type cudaDevice struct {
	ctx uintptr
}

// withContext runs fn with the device context current on a locked thread.
func (d *cudaDevice) withContext(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if st := cuCtxPushCurrent(d.ctx); st != cudaSuccess {
		return &cudaError{call: "cuCtxPushCurrent", status: st}
	}
	defer func() {
		var popped uintptr
		cuCtxPopCurrent(&popped)
	}()
	return fn()
}

func (d *cudaDevice) DecoderCaps(codec cudaVideoCodec, q decodeQuery) (decodeCaps, error) {
	if err := libnvcuvid.Load(); err != nil {
		return decodeCaps{}, fmt.Errorf("%w: %v", errDecoderMissing, err)
	}

	caps := cuvidDecodeCaps{
		codecType:      uint32(codec),
		chromaFormat:   chromaFormat(q.chroma),
		bitDepthMinus8: uint32(q.depth) - 8,
	}
	err := d.withContext(func() error {
		if st := cuvidGetDecoderCap(&caps); st != cudaSuccess {
			return &cudaError{call: "cuvidGetDecoderCaps", status: st}
		}
		return nil
	})
	if err != nil {
		return decodeCaps{}, err
	}
	return decodeCaps{
		supported: caps.isSupported != 0,
		maxWidth:  caps.maxWidth,
		maxHeight: caps.maxHeight,
	}, nil
}

func (d *cudaDevice) OpenEncoder() (encoder, error) {
	return openSession(d.ctx)
}

func (d *cudaDevice) Close() error {
	if st := cuCtxDestroy(d.ctx); st != cudaSuccess {
		return &cudaError{call: "cuCtxDestroy", status: st}
	}
	return nil
}
