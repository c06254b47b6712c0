//go:build linux

package v4l2

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// SysfsRoot is where video4linux nodes are listed.
var SysfsRoot = "/sys/class/video4linux"

// FindDevices returns every video node on the system, sorted by index.
// A missing video4linux class is an empty result, not an error.
func FindDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir(SysfsRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "video") {
			continue
		}

		devicePath := "/dev/" + entry.Name()
		dev, err := Open(devicePath)
		if err != nil {
			slog.With("component", "linuxav").Debug("failed to open video device", "path", devicePath, "error", err)
			continue
		}
		info := dev.info
		dev.Close()

		devices = append(devices, info)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Index < devices[j].Index
	})
	return devices, nil
}

// Device is an open video node.
type Device struct {
	fd   int
	info DeviceInfo
}

// Open opens a video node and queries its capabilities.
func Open(path string) (*Device, error) {
	fd, err := openNode(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var cap v4l2Capability
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&cap)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("VIDIOC_QUERYCAP %s: %w", path, err)
	}

	return &Device{
		fd: fd,
		info: DeviceInfo{
			Path:    path,
			Index:   nodeNumber(path),
			Card:    cstr(cap.card[:]),
			Driver:  cstr(cap.driver[:]),
			BusInfo: cstr(cap.busInfo[:]),
			Caps:    cap.effectiveCaps(),
		},
	}, nil
}

// Info returns the capabilities queried at open.
func (d *Device) Info() DeviceInfo {
	return d.info
}

// Queues returns the OUTPUT and CAPTURE buffer types matching the node's
// planar API.
func (d *Device) Queues() (output, capture BufType) {
	if d.info.IsMPlane() {
		return BufTypeVideoOutputMPlane, BufTypeVideoCaptureMPlane
	}
	return BufTypeVideoOutput, BufTypeVideoCapture
}

// Formats enumerates the pixel formats of one queue.
func (d *Device) Formats(bufType BufType) ([]FormatInfo, error) {
	var formats []FormatInfo
	for index := uint32(0); ; index++ {
		desc := v4l2Fmtdesc{index: index, typ: uint32(bufType)}
		if err := ioctl(d.fd, vidiocEnumFmt, unsafe.Pointer(&desc)); err != nil {
			if endOfList(err) {
				return formats, nil
			}
			return nil, fmt.Errorf("VIDIOC_ENUM_FMT %s %s[%d]: %w", d.info.Path, bufType, index, err)
		}
		formats = append(formats, FormatInfo{
			PixelFormat: desc.pixelformat,
			Description: cstr(desc.description[:]),
			Flags:       desc.flags,
		})
	}
}

// FrameSizes reports the size range of a pixel format. Drivers that do not
// implement VIDIOC_ENUM_FRAMESIZES yield an empty range.
func (d *Device) FrameSizes(pixelFormat uint32) (FrameSizeRange, error) {
	var r FrameSizeRange
	for index := uint32(0); ; index++ {
		frm := v4l2Frmsizeenum{index: index, pixelFormat: pixelFormat}
		if err := ioctl(d.fd, vidiocEnumFramesizes, unsafe.Pointer(&frm)); err != nil {
			if endOfList(err) || notImplemented(err) {
				return r, nil
			}
			return r, fmt.Errorf("VIDIOC_ENUM_FRAMESIZES %s %s: %w", d.info.Path, FormatFourCC(pixelFormat), err)
		}

		switch frm.typ {
		case frmsizeTypeDiscrete:
			s := frm.discrete()
			r = r.merge(s.width, s.height, s.width, s.height)
		case frmsizeTypeContinuous, frmsizeTypeStepwise:
			s := frm.stepwise()
			// Only one entry is returned for non-discrete sizes.
			return r.merge(s.minWidth, s.minHeight, s.maxWidth, s.maxHeight), nil
		}
	}
}

// Close releases the node.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// nodeNumber extracts N from ".../videoN", -1 when there is none.
func nodeNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(name), "video"))
	if err != nil {
		return -1
	}
	return n
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
