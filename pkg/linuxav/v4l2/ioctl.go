//go:build linux

package v4l2

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		default:
			return errno
		}
	}
}

func openNode(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
}

// endOfList reports whether err terminates a V4L2 enumeration loop.
func endOfList(err error) bool {
	return errors.Is(err, unix.EINVAL)
}

// notImplemented reports whether the driver lacks an ioctl entirely.
func notImplemented(err error) bool {
	return errors.Is(err, unix.ENOTTY)
}
