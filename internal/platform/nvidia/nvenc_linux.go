//go:build linux

package nvidia

import (
	"fmt"

	"github.com/ebitengine/purego"
	"github.com/smazurov/hwscan/internal/platform/dl"
)

const nvencSuccess = 0

// Highest API the structs below are laid out for.
const (
	nvencMaxMajor = 12
	nvencMaxMinor = 0
)

const nvencDeviceTypeCUDA = 1

var (
	nvEncodeAPIGetMaxSupportedVersion func(version *uint32) int32
	nvEncodeAPICreateInstance         func(list *nvEncodeAPIFunctionList) int32
)

var libnvenc = dl.New(func(handle uintptr) error {
	return dl.Symbols(handle, map[string]any{
		"NvEncodeAPIGetMaxSupportedVersion": &nvEncodeAPIGetMaxSupportedVersion,
		"NvEncodeAPICreateInstance":         &nvEncodeAPICreateInstance,
	})
}, "libnvidia-encode.so.1", "libnvidia-encode.so")

// Slots in NV_ENCODE_API_FUNCTION_LIST after version and reserved.
const (
	fnGetEncodeGUIDCount        = 1
	fnGetEncodeProfileGUIDCount = 2
	fnGetEncodeProfileGUIDs     = 3
	fnGetEncodeGUIDs            = 4
	fnGetEncodeCaps             = 7
	fnDestroyEncoder            = 27
	fnOpenEncodeSessionEx       = 29
	fnSlots                     = 43
)

// nvEncodeAPIFunctionList mirrors NV_ENCODE_API_FUNCTION_LIST.
type nvEncodeAPIFunctionList struct {
	version   uint32
	reserved  uint32
	fn        [fnSlots]uintptr
	reserved2 [275]uintptr
}

// nvEncOpenEncodeSessionExParams mirrors NV_ENC_OPEN_ENCODE_SESSION_EX_PARAMS.
type nvEncOpenEncodeSessionExParams struct {
	version    uint32
	deviceType uint32
	device     uintptr
	reserved   uintptr
	apiVersion uint32
	reserved1  [253]uint32
	reserved2  [64]uintptr
}

// nvEncCapsParam mirrors NV_ENC_CAPS_PARAM.
type nvEncCapsParam struct {
	version     uint32
	capsToQuery uint32
	reserved    [62]uint32
}

func structVersion(api, v uint32) uint32 {
	return api | v<<16 | 0x7<<28
}

type nvencError struct {
	call   string
	status int32
}

func (e *nvencError) Error() string {
	return fmt.Sprintf("%s: NVENCSTATUS %d", e.call, e.status)
}

// session is an NVENC encoder handle and the entry points bound for it.
// GUID arguments are passed by value; a 16-byte GUID travels in two
// integer registers on amd64 and arm64, so it is split into two words.
type session struct {
	handle uintptr

	getEncodeGUIDCount        func(enc uintptr, count *uint32) int32
	getEncodeGUIDs            func(enc uintptr, guids *guid, size uint32, count *uint32) int32
	getEncodeProfileGUIDCount func(enc uintptr, lo, hi uint64, count *uint32) int32
	getEncodeProfileGUIDs     func(enc uintptr, lo, hi uint64, guids *guid, size uint32, count *uint32) int32
	getEncodeCaps             func(enc uintptr, lo, hi uint64, param *nvEncCapsParam, value *int32) int32
	destroyEncoder            func(enc uintptr) int32

	apiVersion uint32
}

func openSession(ctx uintptr) (encoder, error) {
	if err := libnvenc.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", errEncoderMissing, err)
	}

	var maxVersion uint32
	if st := nvEncodeAPIGetMaxSupportedVersion(&maxVersion); st != nvencSuccess {
		return nil, &nvencError{call: "NvEncodeAPIGetMaxSupportedVersion", status: st}
	}
	major, minor := maxVersion>>4, maxVersion&0xf
	if major > nvencMaxMajor || (major == nvencMaxMajor && minor > nvencMaxMinor) {
		major, minor = nvencMaxMajor, nvencMaxMinor
	}
	api := major | minor<<24

	list := &nvEncodeAPIFunctionList{version: structVersion(api, 2)}
	if st := nvEncodeAPICreateInstance(list); st != nvencSuccess {
		return nil, &nvencError{call: "NvEncodeAPICreateInstance", status: st}
	}
	for _, slot := range []int{fnGetEncodeGUIDCount, fnGetEncodeGUIDs, fnGetEncodeProfileGUIDCount,
		fnGetEncodeProfileGUIDs, fnGetEncodeCaps, fnDestroyEncoder, fnOpenEncodeSessionEx} {
		if list.fn[slot] == 0 {
			return nil, fmt.Errorf("NVENC function table slot %d is empty", slot)
		}
	}

	s := &session{apiVersion: api}
	var openEx func(params *nvEncOpenEncodeSessionExParams, enc *uintptr) int32
	purego.RegisterFunc(&openEx, list.fn[fnOpenEncodeSessionEx])
	purego.RegisterFunc(&s.getEncodeGUIDCount, list.fn[fnGetEncodeGUIDCount])
	purego.RegisterFunc(&s.getEncodeGUIDs, list.fn[fnGetEncodeGUIDs])
	purego.RegisterFunc(&s.getEncodeProfileGUIDCount, list.fn[fnGetEncodeProfileGUIDCount])
	purego.RegisterFunc(&s.getEncodeProfileGUIDs, list.fn[fnGetEncodeProfileGUIDs])
	purego.RegisterFunc(&s.getEncodeCaps, list.fn[fnGetEncodeCaps])
	purego.RegisterFunc(&s.destroyEncoder, list.fn[fnDestroyEncoder])

	params := &nvEncOpenEncodeSessionExParams{
		version:    structVersion(api, 1),
		deviceType: nvencDeviceTypeCUDA,
		device:     ctx,
		apiVersion: api,
	}
	if st := openEx(params, &s.handle); st != nvencSuccess {
		return nil, &nvencError{call: "nvEncOpenEncodeSessionEx", status: st}
	}
	return s, nil
}

func (s *session) CodecGUIDs() ([]guid, error) {
	var count uint32
	if st := s.getEncodeGUIDCount(s.handle, &count); st != nvencSuccess {
		return nil, &nvencError{call: "nvEncGetEncodeGUIDCount", status: st}
	}
	if count == 0 {
		return nil, nil
	}
	guids := make([]guid, count)
	if st := s.getEncodeGUIDs(s.handle, &guids[0], count, &count); st != nvencSuccess {
		return nil, &nvencError{call: "nvEncGetEncodeGUIDs", status: st}
	}
	return guids[:count], nil
}

func (s *session) ProfileGUIDs(codec guid) ([]guid, error) {
	lo, hi := codec.words()
	var count uint32
	if st := s.getEncodeProfileGUIDCount(s.handle, lo, hi, &count); st != nvencSuccess {
		return nil, &nvencError{call: "nvEncGetEncodeProfileGUIDCount", status: st}
	}
	if count == 0 {
		return nil, nil
	}
	guids := make([]guid, count)
	if st := s.getEncodeProfileGUIDs(s.handle, lo, hi, &guids[0], count, &count); st != nvencSuccess {
		return nil, &nvencError{call: "nvEncGetEncodeProfileGUIDs", status: st}
	}
	return guids[:count], nil
}

func (s *session) Caps(codec guid, c capability) (int32, error) {
	lo, hi := codec.words()
	param := &nvEncCapsParam{version: structVersion(s.apiVersion, 1), capsToQuery: uint32(c)}
	var value int32
	if st := s.getEncodeCaps(s.handle, lo, hi, param, &value); st != nvencSuccess {
		return 0, &nvencError{call: "nvEncGetEncodeCaps", status: st}
	}
	return value, nil
}

func (s *session) Close() error {
	if st := s.destroyEncoder(s.handle); st != nvencSuccess {
		return &nvencError{call: "nvEncDestroyEncoder", status: st}
	}
	return nil
}
