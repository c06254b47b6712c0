//go:build linux

package vaapi

import (
	"fmt"
	"os"

	"github.com/smazurov/hwscan/internal/platform/dl"
)

const vaStatusSuccess = 0

// VA_STATUS_ERROR_UNSUPPORTED_PROFILE
const vaStatusErrorUnsupportedProfile = 0x0000000c

var (
	vaInitialize             func(dpy uintptr, major, minor *int32) int32
	vaTerminate              func(dpy uintptr) int32
	vaQueryVendorString      func(dpy uintptr) *byte
	vaMaxNumProfiles         func(dpy uintptr) int32
	vaMaxNumEntrypoints      func(dpy uintptr) int32
	vaQueryConfigProfiles    func(dpy uintptr, list *int32, num *int32) int32
	vaQueryConfigEntrypoints func(dpy uintptr, profile int32, list *int32, num *int32) int32
	vaGetConfigAttributes    func(dpy uintptr, profile, entrypoint int32, attribs *vaConfigAttrib, num int32) int32
	vaErrorStr               func(status int32) *byte

	vaGetDisplayDRM func(fd int32) uintptr
)

var libva = dl.New(func(handle uintptr) error {
	return dl.Symbols(handle, map[string]any{
		"vaInitialize":             &vaInitialize,
		"vaTerminate":              &vaTerminate,
		"vaQueryVendorString":      &vaQueryVendorString,
		"vaMaxNumProfiles":         &vaMaxNumProfiles,
		"vaMaxNumEntrypoints":      &vaMaxNumEntrypoints,
		"vaQueryConfigProfiles":    &vaQueryConfigProfiles,
		"vaQueryConfigEntrypoints": &vaQueryConfigEntrypoints,
		"vaGetConfigAttributes":    &vaGetConfigAttributes,
		"vaErrorStr":               &vaErrorStr,
	})
}, "libva.so.2", "libva.so")

var libvaDRM = dl.New(func(handle uintptr) error {
	return dl.Bind(handle, &vaGetDisplayDRM, "vaGetDisplayDRM")
}, "libva-drm.so.2", "libva-drm.so")

func loadLibVA() error {
	if err := libva.Load(); err != nil {
		return err
	}
	return libvaDRM.Load()
}

// vaConfigAttrib mirrors VAConfigAttrib.
type vaConfigAttrib struct {
	typ   int32
	value uint32
}

type statusError struct {
	call   string
	status int32
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %s (0x%x)", e.call, dl.GoString(vaErrorStr(e.status)), e.status)
}

type libvaDisplay struct {
	file *os.File
	dpy  uintptr
}

func openDisplay(path string) (display, error) {
	if err := loadLibVA(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	dpy := vaGetDisplayDRM(int32(f.Fd()))
	if dpy == 0 {
		f.Close()
		return nil, fmt.Errorf("vaGetDisplayDRM %s: no display", path)
	}

	var major, minor int32
	if st := vaInitialize(dpy, &major, &minor); st != vaStatusSuccess {
		vaTerminate(dpy)
		f.Close()
		return nil, &statusError{call: "vaInitialize", status: st}
	}

	return &libvaDisplay{file: f, dpy: dpy}, nil
}

func (d *libvaDisplay) VendorString() string {
	return dl.GoString(vaQueryVendorString(d.dpy))
}

func (d *libvaDisplay) Profiles() ([]vaProfile, error) {
	limit := vaMaxNumProfiles(d.dpy)
	if limit <= 0 {
		return nil, nil
	}
	list := make([]int32, limit)
	var num int32
	if st := vaQueryConfigProfiles(d.dpy, &list[0], &num); st != vaStatusSuccess {
		return nil, &statusError{call: "vaQueryConfigProfiles", status: st}
	}

	profiles := make([]vaProfile, 0, num)
	for _, p := range list[:num] {
		profiles = append(profiles, vaProfile(p))
	}
	return profiles, nil
}

func (d *libvaDisplay) Entrypoints(profile vaProfile) ([]vaEntrypoint, error) {
	limit := vaMaxNumEntrypoints(d.dpy)
	if limit <= 0 {
		return nil, nil
	}
	list := make([]int32, limit)
	var num int32
	st := vaQueryConfigEntrypoints(d.dpy, int32(profile), &list[0], &num)
	switch st {
	case vaStatusSuccess:
	case vaStatusErrorUnsupportedProfile:
		return nil, nil
	default:
		return nil, &statusError{call: "vaQueryConfigEntrypoints", status: st}
	}

	entrypoints := make([]vaEntrypoint, 0, num)
	for _, e := range list[:num] {
		entrypoints = append(entrypoints, vaEntrypoint(e))
	}
	return entrypoints, nil
}

func (d *libvaDisplay) Attributes(profile vaProfile, entrypoint vaEntrypoint, types ...vaConfigAttribType) (map[vaConfigAttribType]uint32, error) {
	result := make(map[vaConfigAttribType]uint32, len(types))
	if len(types) == 0 {
		return result, nil
	}

	attribs := make([]vaConfigAttrib, len(types))
	for i, t := range types {
		attribs[i].typ = int32(t)
	}
	if st := vaGetConfigAttributes(d.dpy, int32(profile), int32(entrypoint), &attribs[0], int32(len(attribs))); st != vaStatusSuccess {
		return nil, &statusError{call: "vaGetConfigAttributes", status: st}
	}

	for _, a := range attribs {
		result[vaConfigAttribType(a.typ)] = a.value
	}
	return result, nil
}

func (d *libvaDisplay) Terminate() error {
	st := vaTerminate(d.dpy)
	closeErr := d.file.Close()
	if st != vaStatusSuccess {
		return &statusError{call: "vaTerminate", status: st}
	}
	return closeErr
}
